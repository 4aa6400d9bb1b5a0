package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, page, limit int, categoryID *uuid.UUID, search string) ([]model.Product, int64, error)
	ListLowStock(ctx context.Context) ([]model.Product, error)
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (bool, error)
	ReverseQuantity(ctx context.Context, id uuid.UUID, delta int) error
	CountReferences(ctx context.Context, id uuid.UUID) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, page, limit int, categoryID *uuid.UUID, search string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if categoryID != nil {
		db = db.Where("category_id = ?", *categoryID)
	}
	if search != "" {
		pattern := "%" + search + "%"
		db = db.Where("name LIKE ? OR sku LIKE ? OR description LIKE ?", pattern, pattern, pattern)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Category").Order("name").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) ListLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).Where("quantity < min_quantity").Order("name").Find(&products).Error
	return products, err
}

// AdjustQuantity applies delta to the product's quantity with a single
// conditional UPDATE that refuses to drive the quantity negative. Returns
// false when the guard rejected the change (insufficient stock). The check
// and the write happen in one statement, so concurrent adjusters cannot
// interleave between a read and a write.
func (r *productRepository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Product{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReverseQuantity applies delta without the non-negative guard. Movement
// deletion performs an exact reversal and intentionally skips the floor
// check, so a reversal may leave the quantity negative.
func (r *productRepository) ReverseQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

// CountReferences counts movements and project allocations pointing at the
// product; deletion is blocked while any exist.
func (r *productRepository) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	db := GetDB(ctx, r.db)

	var movements int64
	if err := db.Model(&model.Movement{}).Where("product_id = ?", id).Count(&movements).Error; err != nil {
		return 0, err
	}

	var allocations int64
	if err := db.Model(&model.ProjectProduct{}).Where("product_id = ?", id).Count(&allocations).Error; err != nil {
		return 0, err
	}

	return movements + allocations, nil
}
