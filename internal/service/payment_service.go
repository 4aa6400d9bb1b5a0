package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreatePaymentRequest struct {
	PurchaseID string `json:"purchase_id" binding:"required"`
	Method     string `json:"method" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
}

type UpdatePaymentRequest struct {
	Status string `json:"status" binding:"required"`
}

type PaymentResponse struct {
	ID         string `json:"id"`
	PurchaseID string `json:"purchase_id"`
	CustomerID string `json:"customer_id"`
	Method     string `json:"method"`
	Status     string `json:"status"`
	Amount     string `json:"amount"`
	CreatedAt  string `json:"created_at"`
}

// PaymentService records payment attempts against purchases. A payment
// starts pendente and is settled by a staff status change.
type PaymentService interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (PaymentResponse, error)
	UpdatePaymentStatus(ctx context.Context, id string, req UpdatePaymentRequest) (PaymentResponse, error)
	GetPayment(ctx context.Context, id string) (PaymentResponse, error)
	ListPayments(ctx context.Context, page, limit int) ([]PaymentResponse, int64, error)
}

type paymentService struct {
	paymentRepo  repository.PaymentRepository
	purchaseRepo repository.PurchaseRepository
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	purchaseRepo repository.PurchaseRepository,
) PaymentService {
	return &paymentService{paymentRepo: paymentRepo, purchaseRepo: purchaseRepo}
}

func validPaymentStatus(status string) bool {
	switch status {
	case model.PaymentPending, model.PaymentApproved, model.PaymentRefused:
		return true
	}
	return false
}

func toPaymentResponse(p *model.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID.String(),
		PurchaseID: p.PurchaseID.String(),
		CustomerID: p.CustomerID.String(),
		Method:     p.Method,
		Status:     p.Status,
		Amount:     p.Amount.StringFixed(2),
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (PaymentResponse, error) {
	purchaseID, err := uuid.Parse(req.PurchaseID)
	if err != nil {
		return PaymentResponse{}, apperr.InvalidInput("invalid purchase id")
	}

	purchase, err := s.purchaseRepo.FindByIDWithItems(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentResponse{}, apperr.NotFound("purchase not found")
		}
		return PaymentResponse{}, apperr.Internal("failed to load purchase", err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return PaymentResponse{}, apperr.InvalidInput("amount must be a positive decimal")
	}

	payment := &model.Payment{
		PurchaseID: purchaseID,
		CustomerID: purchase.CustomerID,
		Method:     req.Method,
		Status:     model.PaymentPending,
		Amount:     amount,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return PaymentResponse{}, apperr.Internal("failed to create payment", err)
	}

	return toPaymentResponse(payment), nil
}

func (s *paymentService) UpdatePaymentStatus(ctx context.Context, id string, req UpdatePaymentRequest) (PaymentResponse, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return PaymentResponse{}, apperr.InvalidInput("invalid payment id")
	}

	if !validPaymentStatus(req.Status) {
		return PaymentResponse{}, apperr.InvalidInput("status must be pendente, aprovado or recusado")
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentResponse{}, apperr.NotFound("payment not found")
		}
		return PaymentResponse{}, apperr.Internal("failed to load payment", err)
	}

	payment.Status = req.Status
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return PaymentResponse{}, apperr.Internal("failed to update payment", err)
	}

	return toPaymentResponse(payment), nil
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (PaymentResponse, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return PaymentResponse{}, apperr.InvalidInput("invalid payment id")
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentResponse{}, apperr.NotFound("payment not found")
		}
		return PaymentResponse{}, apperr.Internal("failed to load payment", err)
	}

	return toPaymentResponse(payment), nil
}

func (s *paymentService) ListPayments(ctx context.Context, page, limit int) ([]PaymentResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	payments, total, err := s.paymentRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list payments", err)
	}

	res := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		res = append(res, toPaymentResponse(&payments[i]))
	}
	return res, total, nil
}
