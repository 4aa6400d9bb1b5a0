package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementFilter narrows movement listings; zero values mean "no filter".
type MovementFilter struct {
	ProductID *uuid.UUID
	ProjectID *uuid.UUID
	Type      string
	From      *time.Time
	To        *time.Time
}

type MovementRepository interface {
	Create(ctx context.Context, movement *model.Movement) error
	Update(ctx context.Context, movement *model.Movement) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Movement, error)
	List(ctx context.Context, page, limit int, filter MovementFilter) ([]model.Movement, int64, error)
	ListRecent(ctx context.Context, limit int) ([]model.Movement, error)
}

type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, movement *model.Movement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *movementRepository) Update(ctx context.Context, movement *model.Movement) error {
	return GetDB(ctx, r.db).Save(movement).Error
}

func (r *movementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Movement{}).Error
}

func (r *movementRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Movement, error) {
	var movement model.Movement
	if err := GetDB(ctx, r.db).Preload("Product").First(&movement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *movementRepository) List(ctx context.Context, page, limit int, filter MovementFilter) ([]model.Movement, int64, error) {
	var movements []model.Movement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Movement{})
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	if filter.ProjectID != nil {
		db = db.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		db = db.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("date <= ?", *filter.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Order("date desc").Offset(offset).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

func (r *movementRepository) ListRecent(ctx context.Context, limit int) ([]model.Movement, error) {
	var movements []model.Movement
	err := GetDB(ctx, r.db).Preload("Product").Order("date desc").Limit(limit).Find(&movements).Error
	return movements, err
}
