package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	CreateItem(ctx context.Context, item *model.PurchaseItem) error
	UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	List(ctx context.Context, page, limit int, customerID *uuid.UUID) ([]model.Purchase, int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	return GetDB(ctx, r.db).Create(purchase).Error
}

func (r *purchaseRepository) CreateItem(ctx context.Context, item *model.PurchaseItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *purchaseRepository) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Purchase{}).
		Where("id = ?", id).
		Update("total", total).Error
}

// Delete removes the purchase and its items. Movements generated by the
// purchase are left untouched.
func (r *purchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("purchase_id = ?", id).Delete(&model.PurchaseItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Purchase{}).Error
}

func (r *purchaseRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Customer").
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) List(ctx context.Context, page, limit int, customerID *uuid.UUID) ([]model.Purchase, int64, error) {
	var purchases []model.Purchase
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Purchase{})
	if customerID != nil {
		db = db.Where("customer_id = ?", *customerID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Preload("Customer").
		Order("date desc").
		Offset(offset).Limit(limit).
		Find(&purchases).Error; err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}
