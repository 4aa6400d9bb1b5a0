package service

import (
	"context"
	"testing"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStockService(db *gorm.DB) StockService {
	return NewStockService(
		repository.NewProductRepository(db),
		repository.NewMovementRepository(db),
		repository.NewProjectRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		nil,
	)
}

func TestRecordMovement(t *testing.T) {
	db := newTestDB(t)
	svc := newStockService(db)
	ctx := context.Background()
	actor := seedUser(t, db, model.RoleRegular)

	t.Run("entrada increases stock", func(t *testing.T) {
		product := seedProduct(t, db, 0, 0)

		res, err := svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
			ProductID: product.ID.String(),
			Type:      model.MovementIn,
			Quantity:  10,
			Note:      "initial load",
		})
		require.NoError(t, err)
		assert.Equal(t, model.MovementIn, res.Type)
		assert.Equal(t, 10, res.Quantity)
		assert.Equal(t, 10, productQuantity(t, db, product.ID))
	})

	t.Run("saida decreases stock", func(t *testing.T) {
		product := seedProduct(t, db, 10, 0)

		_, err := svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
			ProductID: product.ID.String(),
			Type:      model.MovementOut,
			Quantity:  4,
		})
		require.NoError(t, err)
		assert.Equal(t, 6, productQuantity(t, db, product.ID))
	})

	t.Run("saida beyond stock is rejected and leaves no trace", func(t *testing.T) {
		product := seedProduct(t, db, 3, 0)

		_, err := svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
			ProductID: product.ID.String(),
			Type:      model.MovementOut,
			Quantity:  5,
		})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
		assert.Equal(t, 3, productQuantity(t, db, product.ID))

		var count int64
		require.NoError(t, db.Model(&model.Movement{}).Where("product_id = ?", product.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("zero or negative quantity is invalid", func(t *testing.T) {
		product := seedProduct(t, db, 5, 0)

		_, err := svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
			ProductID: product.ID.String(),
			Type:      model.MovementIn,
			Quantity:  0,
		})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

		_, err = svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
			ProductID: product.ID.String(),
			Type:      model.MovementIn,
			Quantity:  -3,
		})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
			ProductID: "c5a1f9a0-0000-0000-0000-000000000000",
			Type:      model.MovementIn,
			Quantity:  1,
		})
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestDeleteMovement(t *testing.T) {
	db := newTestDB(t)
	svc := newStockService(db)
	ctx := context.Background()
	actor := seedUser(t, db, model.RoleAdmin)

	t.Run("deleting an entrada reverses it exactly, even below zero", func(t *testing.T) {
		product := seedProduct(t, db, 0, 0)

		in, err := svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
			ProductID: product.ID.String(),
			Type:      model.MovementIn,
			Quantity:  10,
		})
		require.NoError(t, err)

		_, err = svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
			ProductID: product.ID.String(),
			Type:      model.MovementOut,
			Quantity:  5,
		})
		require.NoError(t, err)
		require.Equal(t, 5, productQuantity(t, db, product.ID))

		require.NoError(t, svc.DeleteMovement(ctx, actor.ID.String(), in.ID))
		assert.Equal(t, -5, productQuantity(t, db, product.ID))

		_, err = svc.GetMovement(ctx, in.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("deleting a saida restores the stock", func(t *testing.T) {
		product := seedProduct(t, db, 8, 0)

		out, err := svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
			ProductID: product.ID.String(),
			Type:      model.MovementOut,
			Quantity:  3,
		})
		require.NoError(t, err)
		require.Equal(t, 5, productQuantity(t, db, product.ID))

		require.NoError(t, svc.DeleteMovement(ctx, actor.ID.String(), out.ID))
		assert.Equal(t, 8, productQuantity(t, db, product.ID))
	})
}

func TestUpdateMovementNote(t *testing.T) {
	db := newTestDB(t)
	svc := newStockService(db)
	ctx := context.Background()
	actor := seedUser(t, db, model.RoleRegular)
	product := seedProduct(t, db, 0, 0)

	created, err := svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
		ProductID: product.ID.String(),
		Type:      model.MovementIn,
		Quantity:  7,
		Note:      "first",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateMovementNote(ctx, created.ID, UpdateMovementRequest{Note: "corrected"})
	require.NoError(t, err)
	assert.Equal(t, "corrected", updated.Note)

	// Everything else is immutable
	assert.Equal(t, created.Type, updated.Type)
	assert.Equal(t, created.Quantity, updated.Quantity)
	assert.Equal(t, 7, productQuantity(t, db, product.ID))
}

func TestListMovements(t *testing.T) {
	db := newTestDB(t)
	svc := newStockService(db)
	ctx := context.Background()
	actor := seedUser(t, db, model.RoleRegular)
	productA := seedProduct(t, db, 100, 0)
	productB := seedProduct(t, db, 100, 0)

	for i := 0; i < 3; i++ {
		_, err := svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
			ProductID: productA.ID.String(),
			Type:      model.MovementIn,
			Quantity:  1,
		})
		require.NoError(t, err)
	}
	_, err := svc.RecordMovement(ctx, actor.ID.String(), RecordMovementRequest{
		ProductID: productB.ID.String(),
		Type:      model.MovementOut,
		Quantity:  2,
	})
	require.NoError(t, err)

	all, total, err := svc.ListMovements(ctx, MovementListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, all, 4)

	byProduct, total, err := svc.ListMovements(ctx, MovementListFilter{ProductID: productA.ID.String(), Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	for _, m := range byProduct {
		assert.Equal(t, productA.ID.String(), m.ProductID)
	}

	byType, total, err := svc.ListMovements(ctx, MovementListFilter{Type: model.MovementOut, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, byType, 1)
	assert.Equal(t, productB.ID.String(), byType[0].ProductID)

	recent, err := svc.RecentMovements(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
