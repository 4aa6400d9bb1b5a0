package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type RecordMovementRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=entrada saida"`
	Quantity  int    `json:"quantity" binding:"required"`
	Note      string `json:"note"`
	ProjectID string `json:"project_id"`
}

type UpdateMovementRequest struct {
	Note string `json:"note"`
}

type MovementResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	UserID      *string `json:"user_id"`
	Type        string  `json:"type"`
	Quantity    int     `json:"quantity"`
	Date        string  `json:"date"`
	Note        string  `json:"note"`
	ProjectID   *string `json:"project_id"`
}

type MovementListFilter struct {
	ProductID string
	ProjectID string
	Type      string
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

// StockService is the ledger that keeps Product.Quantity consistent with
// the movement history.
type StockService interface {
	RecordMovement(ctx context.Context, actorID string, req RecordMovementRequest) (MovementResponse, error)
	UpdateMovementNote(ctx context.Context, id string, req UpdateMovementRequest) (MovementResponse, error)
	DeleteMovement(ctx context.Context, actorID string, id string) error
	GetMovement(ctx context.Context, id string) (MovementResponse, error)
	ListMovements(ctx context.Context, filter MovementListFilter) ([]MovementResponse, int64, error)
	RecentMovements(ctx context.Context, limit int) ([]MovementResponse, error)
}

type stockService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	projectRepo  repository.ProjectRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewStockService(
	productRepo repository.ProductRepository,
	movementRepo repository.MovementRepository,
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) StockService {
	return &stockService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		projectRepo:  projectRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func toMovementResponse(m *model.Movement) MovementResponse {
	res := MovementResponse{
		ID:        m.ID.String(),
		ProductID: m.ProductID.String(),
		Type:      m.Type,
		Quantity:  m.Quantity,
		Date:      m.Date.Format(time.RFC3339),
		Note:      m.Note,
	}
	if m.Product != nil {
		res.ProductName = m.Product.Name
	}
	if m.UserID != nil {
		id := m.UserID.String()
		res.UserID = &id
	}
	if m.ProjectID != nil {
		id := m.ProjectID.String()
		res.ProjectID = &id
	}
	return res
}

func (s *stockService) RecordMovement(ctx context.Context, actorID string, req RecordMovementRequest) (MovementResponse, error) {
	if req.Quantity <= 0 {
		return MovementResponse{}, apperr.InvalidInput("quantity must be greater than zero")
	}
	if req.Type != model.MovementIn && req.Type != model.MovementOut {
		return MovementResponse{}, apperr.InvalidInput("type must be entrada or saida")
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return MovementResponse{}, apperr.InvalidInput("invalid product id")
	}

	var projectID *uuid.UUID
	if req.ProjectID != "" {
		parsed, parseErr := uuid.Parse(req.ProjectID)
		if parseErr != nil {
			return MovementResponse{}, apperr.InvalidInput("invalid project id")
		}
		projectID = &parsed
	}

	var actor *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actor = &parsed
	}

	var movement model.Movement
	var product *model.Product

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err = s.productRepo.FindByID(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("product not found")
			}
			return apperr.Internal("failed to load product", err)
		}

		if projectID != nil {
			if _, findErr := s.projectRepo.FindByID(txCtx, *projectID); findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return apperr.NotFound("project not found")
				}
				return apperr.Internal("failed to load project", findErr)
			}
		}

		delta := req.Quantity
		if req.Type == model.MovementOut {
			delta = -req.Quantity
		}

		// The conditional update is the stock floor: it rejects any exit
		// that would drive the quantity negative, atomically.
		ok, adjErr := s.productRepo.AdjustQuantity(txCtx, productID, delta)
		if adjErr != nil {
			return apperr.Internal("failed to adjust stock", adjErr)
		}
		if !ok {
			return apperr.InsufficientStock("insufficient stock for %s: available %d, requested %d",
				product.Name, product.Quantity, req.Quantity)
		}
		product.Quantity += delta

		movement = model.Movement{
			ProductID: productID,
			UserID:    actor,
			Type:      req.Type,
			Quantity:  req.Quantity,
			Date:      time.Now().UTC(),
			Note:      req.Note,
			ProjectID: projectID,
		}
		if createErr := s.movementRepo.Create(txCtx, &movement); createErr != nil {
			return apperr.Internal("failed to record movement", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"type":     req.Type,
			"quantity": req.Quantity,
			"product":  product.Name,
		})
		audit := &model.AuditLog{
			UserID:   actor,
			Action:   model.ActionCreateMovement,
			Entity:   "movements",
			RecordID: movement.ID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperr.Internal("failed to write audit log", auditErr)
		}

		return nil
	})

	if err != nil {
		return MovementResponse{}, err
	}

	s.hub.Publish(ws.StockEvent{
		Event:       ws.EventMovementRecorded,
		ProductID:   product.ID.String(),
		ProductName: product.Name,
		Quantity:    product.Quantity,
	})
	if product.Quantity < product.MinQuantity {
		s.hub.Publish(ws.StockEvent{
			Event:       ws.EventLowStock,
			ProductID:   product.ID.String(),
			ProductName: product.Name,
			Quantity:    product.Quantity,
			MinQuantity: product.MinQuantity,
		})
	}

	movement.Product = product
	return toMovementResponse(&movement), nil
}

// UpdateMovementNote changes the note; every other movement field is
// immutable after creation.
func (s *stockService) UpdateMovementNote(ctx context.Context, id string, req UpdateMovementRequest) (MovementResponse, error) {
	movementID, err := uuid.Parse(id)
	if err != nil {
		return MovementResponse{}, apperr.InvalidInput("invalid movement id")
	}

	movement, err := s.movementRepo.FindByID(ctx, movementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MovementResponse{}, apperr.NotFound("movement not found")
		}
		return MovementResponse{}, apperr.Internal("failed to load movement", err)
	}

	movement.Note = req.Note
	if err := s.movementRepo.Update(ctx, movement); err != nil {
		return MovementResponse{}, apperr.Internal("failed to update movement", err)
	}

	return toMovementResponse(movement), nil
}

// DeleteMovement reverses the quantity effect before removing the record.
// The reversal is exact: no floor check is applied, so deleting an entrada
// can leave the product quantity negative.
func (s *stockService) DeleteMovement(ctx context.Context, actorID string, id string) error {
	movementID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid movement id")
	}

	var actor *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actor = &parsed
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		movement, findErr := s.movementRepo.FindByID(txCtx, movementID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("movement not found")
			}
			return apperr.Internal("failed to load movement", findErr)
		}

		delta := -movement.Quantity
		if movement.Type == model.MovementOut {
			delta = movement.Quantity
		}
		if revErr := s.productRepo.ReverseQuantity(txCtx, movement.ProductID, delta); revErr != nil {
			return apperr.Internal("failed to reverse stock", revErr)
		}

		if delErr := s.movementRepo.Delete(txCtx, movementID); delErr != nil {
			return apperr.Internal("failed to delete movement", delErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"type":     movement.Type,
			"quantity": movement.Quantity,
		})
		audit := &model.AuditLog{
			UserID:   actor,
			Action:   model.ActionDeleteMovement,
			Entity:   "movements",
			RecordID: movementID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperr.Internal("failed to write audit log", auditErr)
		}

		return nil
	})
}

func (s *stockService) GetMovement(ctx context.Context, id string) (MovementResponse, error) {
	movementID, err := uuid.Parse(id)
	if err != nil {
		return MovementResponse{}, apperr.InvalidInput("invalid movement id")
	}

	movement, err := s.movementRepo.FindByID(ctx, movementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MovementResponse{}, apperr.NotFound("movement not found")
		}
		return MovementResponse{}, apperr.Internal("failed to load movement", err)
	}

	return toMovementResponse(movement), nil
}

func (s *stockService) ListMovements(ctx context.Context, filter MovementListFilter) ([]MovementResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.MovementFilter{
		Type: filter.Type,
		From: filter.From,
		To:   filter.To,
	}
	if filter.ProductID != "" {
		id, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, 0, apperr.InvalidInput("invalid product id")
		}
		repoFilter.ProductID = &id
	}
	if filter.ProjectID != "" {
		id, err := uuid.Parse(filter.ProjectID)
		if err != nil {
			return nil, 0, apperr.InvalidInput("invalid project id")
		}
		repoFilter.ProjectID = &id
	}

	movements, total, err := s.movementRepo.List(ctx, filter.Page, filter.Limit, repoFilter)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list movements", err)
	}

	res := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		res = append(res, toMovementResponse(&movements[i]))
	}
	return res, total, nil
}

func (s *stockService) RecentMovements(ctx context.Context, limit int) ([]MovementResponse, error) {
	if limit <= 0 {
		limit = 5
	}

	movements, err := s.movementRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperr.Internal("failed to list recent movements", err)
	}

	res := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		res = append(res, toMovementResponse(&movements[i]))
	}
	return res, nil
}
