package service

import (
	"context"
	"testing"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPurchaseService(db *gorm.DB) PurchaseService {
	return NewPurchaseService(
		repository.NewPurchaseRepository(db),
		repository.NewProductRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewMovementRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		nil,
	)
}

func TestFinalizePurchase(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(db)
	ctx := context.Background()
	actor := seedUser(t, db, model.RoleRegular)

	t.Run("debits stock, snapshots prices and writes saida movements", func(t *testing.T) {
		customer := seedCustomer(t, db)
		product := seedProduct(t, db, 10, 0) // sale price 25.50

		res, err := svc.FinalizePurchase(ctx, actor.ID.String(), FinalizePurchaseRequest{
			CustomerID: customer.ID.String(),
			Items:      []PurchaseLineRequest{{ProductID: product.ID.String(), Quantity: 2}},
		})
		require.NoError(t, err)

		assert.Equal(t, "51.00", res.Total)
		require.Len(t, res.Items, 1)
		assert.Equal(t, product.Name, res.Items[0].Name)
		assert.Equal(t, "25.50", res.Items[0].UnitPrice)
		assert.Equal(t, 8, productQuantity(t, db, product.ID))

		var movements []model.Movement
		require.NoError(t, db.Where("product_id = ?", product.ID).Find(&movements).Error)
		require.Len(t, movements, 1)
		assert.Equal(t, model.MovementOut, movements[0].Type)
		assert.Equal(t, 2, movements[0].Quantity)
		assert.Nil(t, movements[0].UserID)
	})

	t.Run("any short line rolls back the whole order", func(t *testing.T) {
		customer := seedCustomer(t, db)
		productA := seedProduct(t, db, 5, 0)
		productB := seedProduct(t, db, 0, 0)

		_, err := svc.FinalizePurchase(ctx, actor.ID.String(), FinalizePurchaseRequest{
			CustomerID: customer.ID.String(),
			Items: []PurchaseLineRequest{
				{ProductID: productA.ID.String(), Quantity: 2},
				{ProductID: productB.ID.String(), Quantity: 1},
			},
		})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))

		assert.Equal(t, 5, productQuantity(t, db, productA.ID))
		assert.Equal(t, 0, productQuantity(t, db, productB.ID))

		var purchases int64
		require.NoError(t, db.Model(&model.Purchase{}).Where("customer_id = ?", customer.ID).Count(&purchases).Error)
		assert.Zero(t, purchases)

		var movements int64
		require.NoError(t, db.Model(&model.Movement{}).Where("product_id IN ?", []uuid.UUID{productA.ID, productB.ID}).Count(&movements).Error)
		assert.Zero(t, movements)
	})

	t.Run("empty order is invalid", func(t *testing.T) {
		customer := seedCustomer(t, db)

		_, err := svc.FinalizePurchase(ctx, actor.ID.String(), FinalizePurchaseRequest{
			CustomerID: customer.ID.String(),
		})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})

	t.Run("unknown customer", func(t *testing.T) {
		product := seedProduct(t, db, 5, 0)

		_, err := svc.FinalizePurchase(ctx, actor.ID.String(), FinalizePurchaseRequest{
			CustomerID: "9f3e0f60-0000-0000-0000-000000000000",
			Items:      []PurchaseLineRequest{{ProductID: product.ID.String(), Quantity: 1}},
		})
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestCustomerCheckout(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(db)
	ctx := context.Background()
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 10, 0)

	res, err := svc.Checkout(ctx, customer.ID.String(), []PurchaseLineRequest{
		{ProductID: product.ID.String(), Quantity: 3},
	})
	require.NoError(t, err)

	// The purchase belongs to the token's customer, not a payload field.
	assert.Equal(t, customer.ID.String(), res.CustomerID)
	assert.Equal(t, 7, productQuantity(t, db, product.ID))

	var movements []model.Movement
	require.NoError(t, db.Where("product_id = ?", product.ID).Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Nil(t, movements[0].UserID)
}

func TestPurchaseSnapshotSurvivesProductEdit(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(db)
	ctx := context.Background()
	actor := seedUser(t, db, model.RoleRegular)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 10, 0)

	created, err := svc.FinalizePurchase(ctx, actor.ID.String(), FinalizePurchaseRequest{
		CustomerID: customer.ID.String(),
		Items:      []PurchaseLineRequest{{ProductID: product.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", product.ID).
		Updates(map[string]interface{}{"name": "Renamed", "sale_price": "99.99"}).Error)

	reloaded, err := svc.GetPurchase(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, product.Name, reloaded.Items[0].Name)
	assert.Equal(t, "25.50", reloaded.Items[0].UnitPrice)
	assert.Equal(t, "25.50", reloaded.Total)
}

func TestDeletePurchase(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(db)
	ctx := context.Background()
	actor := seedUser(t, db, model.RoleAdmin)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 10, 0)

	created, err := svc.FinalizePurchase(ctx, actor.ID.String(), FinalizePurchaseRequest{
		CustomerID: customer.ID.String(),
		Items:      []PurchaseLineRequest{{ProductID: product.ID.String(), Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, 6, productQuantity(t, db, product.ID))

	require.NoError(t, svc.DeletePurchase(ctx, actor.ID.String(), created.ID))

	// The record is gone but stock is not silently restored
	_, err = svc.GetPurchase(ctx, created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Equal(t, 6, productQuantity(t, db, product.ID))
}

func TestListPurchases(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(db)
	ctx := context.Background()
	actor := seedUser(t, db, model.RoleRegular)
	alice := seedCustomer(t, db)
	bob := seedCustomer(t, db)
	product := seedProduct(t, db, 100, 0)

	for _, c := range []*model.Customer{alice, alice, bob} {
		_, err := svc.FinalizePurchase(ctx, actor.ID.String(), FinalizePurchaseRequest{
			CustomerID: c.ID.String(),
			Items:      []PurchaseLineRequest{{ProductID: product.ID.String(), Quantity: 1}},
		})
		require.NoError(t, err)
	}

	all, total, err := svc.ListPurchases(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	onlyAlice, total, err := svc.ListPurchases(ctx, 1, 10, alice.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, p := range onlyAlice {
		assert.Equal(t, alice.ID.String(), p.CustomerID)
	}
}
