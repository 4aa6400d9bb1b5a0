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

func newPaymentService(db *gorm.DB) PaymentService {
	return NewPaymentService(
		repository.NewPaymentRepository(db),
		repository.NewPurchaseRepository(db),
	)
}

func seedPurchase(t *testing.T, db *gorm.DB) *model.Purchase {
	t.Helper()

	customer := seedCustomer(t, db)
	purchase := &model.Purchase{CustomerID: customer.ID}
	require.NoError(t, db.Create(purchase).Error)
	return purchase
}

func TestCreatePayment(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()
	purchase := seedPurchase(t, db)

	t.Run("starts pendente with the purchase's customer", func(t *testing.T) {
		payment, err := svc.CreatePayment(ctx, CreatePaymentRequest{
			PurchaseID: purchase.ID.String(),
			Method:     "pix",
			Amount:     "120.50",
		})
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPending, payment.Status)
		assert.Equal(t, purchase.CustomerID.String(), payment.CustomerID)
		assert.Equal(t, "120.50", payment.Amount)
	})

	t.Run("non-positive amount is invalid", func(t *testing.T) {
		_, err := svc.CreatePayment(ctx, CreatePaymentRequest{
			PurchaseID: purchase.ID.String(),
			Method:     "pix",
			Amount:     "0",
		})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})

	t.Run("unknown purchase", func(t *testing.T) {
		_, err := svc.CreatePayment(ctx, CreatePaymentRequest{
			PurchaseID: "3d1c2a10-0000-0000-0000-000000000000",
			Method:     "pix",
			Amount:     "10.00",
		})
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestUpdatePaymentStatus(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()
	purchase := seedPurchase(t, db)

	payment, err := svc.CreatePayment(ctx, CreatePaymentRequest{
		PurchaseID: purchase.ID.String(),
		Method:     "boleto",
		Amount:     "75.00",
	})
	require.NoError(t, err)

	approved, err := svc.UpdatePaymentStatus(ctx, payment.ID, UpdatePaymentRequest{Status: model.PaymentApproved})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentApproved, approved.Status)

	_, err = svc.UpdatePaymentStatus(ctx, payment.ID, UpdatePaymentRequest{Status: "cancelado"})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
}
