package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type FinalizePurchaseRequest struct {
	CustomerID string                `json:"customer_id" binding:"required"`
	Items      []PurchaseLineRequest `json:"items" binding:"required"`
}

type PurchaseItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type PurchaseResponse struct {
	ID           string                 `json:"id"`
	CustomerID   string                 `json:"customer_id"`
	CustomerName string                 `json:"customer_name,omitempty"`
	Date         string                 `json:"date"`
	Total        string                 `json:"total"`
	Items        []PurchaseItemResponse `json:"items"`
}

// PurchaseService finalizes customer orders against the stock ledger.
type PurchaseService interface {
	FinalizePurchase(ctx context.Context, actorID string, req FinalizePurchaseRequest) (PurchaseResponse, error)
	Checkout(ctx context.Context, customerID string, items []PurchaseLineRequest) (PurchaseResponse, error)
	GetPurchase(ctx context.Context, id string) (PurchaseResponse, error)
	ListPurchases(ctx context.Context, page, limit int, customerID string) ([]PurchaseResponse, int64, error)
	DeletePurchase(ctx context.Context, actorID string, id string) error
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	movementRepo repository.MovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	movementRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func toPurchaseResponse(p *model.Purchase) PurchaseResponse {
	res := PurchaseResponse{
		ID:         p.ID.String(),
		CustomerID: p.CustomerID.String(),
		Date:       p.Date.Format(time.RFC3339),
		Total:      p.Total.StringFixed(2),
		Items:      make([]PurchaseItemResponse, 0, len(p.Items)),
	}
	if p.Customer != nil {
		res.CustomerName = p.Customer.Name
	}
	for _, item := range p.Items {
		res.Items = append(res.Items, PurchaseItemResponse{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return res
}

// FinalizePurchase runs the whole order in one transaction: every line is
// debited from stock or none is. Item names and unit prices are snapshotted
// at this moment, and each line also produces a saida movement so the ledger
// stays the single history of stock changes.
func (s *purchaseService) FinalizePurchase(ctx context.Context, actorID string, req FinalizePurchaseRequest) (PurchaseResponse, error) {
	if len(req.Items) == 0 {
		return PurchaseResponse{}, apperr.InvalidInput("purchase must contain at least one item")
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return PurchaseResponse{}, apperr.InvalidInput("invalid customer id")
	}

	var actor *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actor = &parsed
	}

	var purchase model.Purchase
	var affected []model.Product

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, findErr := s.customerRepo.FindByID(txCtx, customerID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("customer not found")
			}
			return apperr.Internal("failed to load customer", findErr)
		}

		purchase = model.Purchase{
			CustomerID: customerID,
			Customer:   customer,
			Date:       time.Now().UTC(),
			Total:      decimal.Zero,
		}
		if createErr := s.purchaseRepo.Create(txCtx, &purchase); createErr != nil {
			return apperr.Internal("failed to create purchase", createErr)
		}

		total := decimal.Zero
		for _, line := range req.Items {
			if line.Quantity <= 0 {
				return apperr.InvalidInput("item quantity must be greater than zero")
			}

			productID, parseErr := uuid.Parse(line.ProductID)
			if parseErr != nil {
				return apperr.InvalidInput("invalid product id %q", line.ProductID)
			}

			product, prodErr := s.productRepo.FindByID(txCtx, productID)
			if prodErr != nil {
				if errors.Is(prodErr, gorm.ErrRecordNotFound) {
					return apperr.NotFound("product %s not found", line.ProductID)
				}
				return apperr.Internal("failed to load product", prodErr)
			}

			ok, adjErr := s.productRepo.AdjustQuantity(txCtx, productID, -line.Quantity)
			if adjErr != nil {
				return apperr.Internal("failed to adjust stock", adjErr)
			}
			if !ok {
				return apperr.InsufficientStock("insufficient stock for %s: available %d, requested %d",
					product.Name, product.Quantity, line.Quantity)
			}
			product.Quantity -= line.Quantity

			item := model.PurchaseItem{
				PurchaseID: purchase.ID,
				ProductID:  productID,
				Name:       product.Name,
				Quantity:   line.Quantity,
				UnitPrice:  product.SalePrice,
			}
			if itemErr := s.purchaseRepo.CreateItem(txCtx, &item); itemErr != nil {
				return apperr.Internal("failed to create purchase item", itemErr)
			}
			purchase.Items = append(purchase.Items, item)

			// System-generated from the purchase, so no acting user on the row.
			movement := model.Movement{
				ProductID: productID,
				UserID:    nil,
				Type:      model.MovementOut,
				Quantity:  line.Quantity,
				Date:      purchase.Date,
				Note:      fmt.Sprintf("Compra %s - %s", purchase.ID, customer.Name),
			}
			if movErr := s.movementRepo.Create(txCtx, &movement); movErr != nil {
				return apperr.Internal("failed to record purchase movement", movErr)
			}

			total = total.Add(product.SalePrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
			affected = append(affected, *product)
		}

		purchase.Total = total
		if updErr := s.purchaseRepo.UpdateTotal(txCtx, purchase.ID, total); updErr != nil {
			return apperr.Internal("failed to store purchase total", updErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"customer": customer.Name,
			"items":    len(req.Items),
			"total":    total.StringFixed(2),
		})
		audit := &model.AuditLog{
			UserID:   actor,
			Action:   model.ActionFinalizePurchase,
			Entity:   "purchases",
			RecordID: purchase.ID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperr.Internal("failed to write audit log", auditErr)
		}

		return nil
	})

	if err != nil {
		return PurchaseResponse{}, err
	}

	for i := range affected {
		p := &affected[i]
		s.hub.Publish(ws.StockEvent{
			Event:       ws.EventPurchaseClosed,
			ProductID:   p.ID.String(),
			ProductName: p.Name,
			Quantity:    p.Quantity,
		})
		if p.Quantity < p.MinQuantity {
			s.hub.Publish(ws.StockEvent{
				Event:       ws.EventLowStock,
				ProductID:   p.ID.String(),
				ProductName: p.Name,
				Quantity:    p.Quantity,
				MinQuantity: p.MinQuantity,
			})
		}
	}

	return toPurchaseResponse(&purchase), nil
}

// Checkout finalizes an order for the authenticated customer. The customer
// comes from the token, not the payload, and there is no staff actor.
func (s *purchaseService) Checkout(ctx context.Context, customerID string, items []PurchaseLineRequest) (PurchaseResponse, error) {
	return s.FinalizePurchase(ctx, "", FinalizePurchaseRequest{
		CustomerID: customerID,
		Items:      items,
	})
}

func (s *purchaseService) GetPurchase(ctx context.Context, id string) (PurchaseResponse, error) {
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseResponse{}, apperr.InvalidInput("invalid purchase id")
	}

	purchase, err := s.purchaseRepo.FindByIDWithItems(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseResponse{}, apperr.NotFound("purchase not found")
		}
		return PurchaseResponse{}, apperr.Internal("failed to load purchase", err)
	}

	return toPurchaseResponse(purchase), nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, page, limit int, customerID string) ([]PurchaseResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var filter *uuid.UUID
	if customerID != "" {
		id, err := uuid.Parse(customerID)
		if err != nil {
			return nil, 0, apperr.InvalidInput("invalid customer id")
		}
		filter = &id
	}

	purchases, total, err := s.purchaseRepo.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list purchases", err)
	}

	res := make([]PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		res = append(res, toPurchaseResponse(&purchases[i]))
	}
	return res, total, nil
}

// DeletePurchase removes the purchase record and its items. The movements
// it generated stay in the ledger and stock is not restored; use movement
// deletion to undo individual stock effects.
func (s *purchaseService) DeletePurchase(ctx context.Context, actorID string, id string) error {
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid purchase id")
	}

	var actor *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actor = &parsed
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		purchase, findErr := s.purchaseRepo.FindByIDWithItems(txCtx, purchaseID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("purchase not found")
			}
			return apperr.Internal("failed to load purchase", findErr)
		}

		if delErr := s.purchaseRepo.Delete(txCtx, purchaseID); delErr != nil {
			return apperr.Internal("failed to delete purchase", delErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"total": purchase.Total.StringFixed(2),
			"items": len(purchase.Items),
		})
		audit := &model.AuditLog{
			UserID:   actor,
			Action:   model.ActionDeletePurchase,
			Entity:   "purchases",
			RecordID: purchaseID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperr.Internal("failed to write audit log", auditErr)
		}

		return nil
	})
}
