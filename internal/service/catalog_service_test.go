package service

import (
	"context"
	"fmt"
	"testing"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCatalogService(db *gorm.DB) CatalogService {
	return NewCatalogService(
		repository.NewCategoryRepository(db),
		repository.NewProductRepository(db),
		repository.NewAuditRepository(db),
	)
}

func TestCategories(t *testing.T) {
	db := newTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Tintas", Description: "Tintas e vernizes"})
	require.NoError(t, err)

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Tintas"})
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("delete refuses while products remain", func(t *testing.T) {
		admin := seedUser(t, db, model.RoleAdmin)
		_, err := svc.CreateProduct(ctx, admin.ID.String(), CreateProductRequest{
			Name:       "Tinta Branca",
			SKU:        "TINTA-001",
			CategoryID: created.ID,
			Unit:       "lata",
			CostPrice:  "42.90",
			SalePrice:  "59.90",
		})
		require.NoError(t, err)

		err = svc.DeleteCategory(ctx, created.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("empty category is removed", func(t *testing.T) {
		empty, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Vazia"})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteCategory(ctx, empty.ID))
		_, err = svc.GetCategory(ctx, empty.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestCreateProduct(t *testing.T) {
	db := newTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()
	admin := seedUser(t, db, model.RoleAdmin)
	category := seedCategory(t, db)

	base := CreateProductRequest{
		Name:       "Cimento",
		SKU:        "CIM-001",
		CategoryID: category.ID.String(),
		Unit:       "saco",
		CostPrice:  "28.00",
		SalePrice:  "35.00",
	}

	t.Run("starts with zero stock", func(t *testing.T) {
		product, err := svc.CreateProduct(ctx, admin.ID.String(), base)
		require.NoError(t, err)
		assert.Zero(t, product.Quantity)
		assert.Equal(t, "28.00", product.CostPrice)
		assert.Equal(t, "35.00", product.SalePrice)
	})

	t.Run("duplicate SKU conflicts", func(t *testing.T) {
		dup := base
		dup.Name = "Outro Cimento"
		_, err := svc.CreateProduct(ctx, admin.ID.String(), dup)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("negative price is invalid", func(t *testing.T) {
		bad := base
		bad.SKU = "CIM-002"
		bad.CostPrice = "-1.00"
		_, err := svc.CreateProduct(ctx, admin.ID.String(), bad)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})

	t.Run("max below min is invalid", func(t *testing.T) {
		two := 2
		bad := base
		bad.SKU = "CIM-003"
		bad.MinQuantity = 5
		bad.MaxQuantity = &two
		_, err := svc.CreateProduct(ctx, admin.ID.String(), bad)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})

	t.Run("unknown category", func(t *testing.T) {
		bad := base
		bad.SKU = "CIM-004"
		bad.CategoryID = "0b0e6f30-0000-0000-0000-000000000000"
		_, err := svc.CreateProduct(ctx, admin.ID.String(), bad)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestDeleteProduct(t *testing.T) {
	db := newTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()
	admin := seedUser(t, db, model.RoleAdmin)

	t.Run("unreferenced product is removed", func(t *testing.T) {
		product := seedProduct(t, db, 0, 0)
		require.NoError(t, svc.DeleteProduct(ctx, admin.ID.String(), product.ID.String()))

		_, err := svc.GetProduct(ctx, product.ID.String())
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("product with ledger history is kept", func(t *testing.T) {
		product := seedProduct(t, db, 5, 0)
		movement := &model.Movement{ProductID: product.ID, Type: model.MovementIn, Quantity: 5}
		require.NoError(t, db.Create(movement).Error)

		err := svc.DeleteProduct(ctx, admin.ID.String(), product.ID.String())
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})
}

func TestLowStockAndStats(t *testing.T) {
	db := newTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	low := seedProduct(t, db, 2, 5)
	seedProduct(t, db, 10, 5)

	t.Run("low stock lists products under the minimum", func(t *testing.T) {
		products, err := svc.ListLowStock(ctx)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, low.ID.String(), products[0].ID)
		assert.True(t, products[0].LowStock)
	})

	t.Run("stats aggregate the catalog", func(t *testing.T) {
		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.TotalProducts)
		assert.EqualValues(t, 1, stats.LowStockCount)
		// 2*10.00 + 10*10.00 at cost, 2*25.50 + 10*25.50 at sale price
		assert.Equal(t, "120.00", stats.TotalCost)
		assert.Equal(t, "306.00", stats.TotalSale)
	})
}

func TestListProducts(t *testing.T) {
	db := newTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()
	admin := seedUser(t, db, model.RoleAdmin)
	category := seedCategory(t, db)
	other := seedCategory(t, db)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateProduct(ctx, admin.ID.String(), CreateProductRequest{
			Name:       fmt.Sprintf("Parafuso %d", i),
			SKU:        fmt.Sprintf("PAR-%03d", i),
			CategoryID: category.ID.String(),
			Unit:       "un",
			CostPrice:  "0.10",
			SalePrice:  "0.25",
		})
		require.NoError(t, err)
	}
	_, err := svc.CreateProduct(ctx, admin.ID.String(), CreateProductRequest{
		Name:       "Martelo",
		SKU:        "MAR-001",
		CategoryID: other.ID.String(),
		Unit:       "un",
		CostPrice:  "15.00",
		SalePrice:  "29.90",
	})
	require.NoError(t, err)

	byCategory, total, err := svc.ListProducts(ctx, 1, 10, category.ID.String(), "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, byCategory, 3)

	bySearch, total, err := svc.ListProducts(ctx, 1, 10, "", "Martelo")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "MAR-001", bySearch[0].SKU)
}
