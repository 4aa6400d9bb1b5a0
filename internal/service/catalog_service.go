package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type CreateProductRequest struct {
	Name        string `json:"name" binding:"required"`
	SKU         string `json:"sku" binding:"required"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id" binding:"required"`
	Unit        string `json:"unit" binding:"required"`
	CostPrice   string `json:"cost_price" binding:"required"`
	SalePrice   string `json:"sale_price" binding:"required"`
	MinQuantity int    `json:"min_quantity"`
	MaxQuantity *int   `json:"max_quantity"`
	ImageURL    string `json:"image_url"`
}

type UpdateProductRequest struct {
	Name        string  `json:"name"`
	SKU         string  `json:"sku"`
	Description *string `json:"description"`
	CategoryID  string  `json:"category_id"`
	Unit        string  `json:"unit"`
	CostPrice   string  `json:"cost_price"`
	SalePrice   string  `json:"sale_price"`
	MinQuantity *int    `json:"min_quantity"`
	MaxQuantity *int    `json:"max_quantity"`
	ImageURL    *string `json:"image_url"`
}

type ProductResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Description  string `json:"description"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
	Unit         string `json:"unit"`
	CostPrice    string `json:"cost_price"`
	SalePrice    string `json:"sale_price"`
	Quantity     int    `json:"quantity"`
	MinQuantity  int    `json:"min_quantity"`
	MaxQuantity  *int   `json:"max_quantity"`
	ImageURL     string `json:"image_url"`
	LowStock     bool   `json:"low_stock"`
	CreatedAt    string `json:"created_at"`
}

type InventoryStats struct {
	TotalProducts int64  `json:"total_products"`
	LowStockCount int64  `json:"low_stock_count"`
	TotalCost     string `json:"total_cost"`
	TotalSale     string `json:"total_sale"`
}

// CatalogService manages categories and products. Product quantity is read
// here but only ever written through the stock ledger.
type CatalogService interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (CategoryResponse, error)
	UpdateCategory(ctx context.Context, id string, req UpdateCategoryRequest) (CategoryResponse, error)
	DeleteCategory(ctx context.Context, id string) error
	GetCategory(ctx context.Context, id string) (CategoryResponse, error)
	ListCategories(ctx context.Context, page, limit int) ([]CategoryResponse, int64, error)

	CreateProduct(ctx context.Context, actorID string, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, actorID, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, actorID, id string) error
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	ListProducts(ctx context.Context, page, limit int, categoryID, search string) ([]ProductResponse, int64, error)
	ListLowStock(ctx context.Context) ([]ProductResponse, error)
	Stats(ctx context.Context) (InventoryStats, error)
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	auditRepo    repository.AuditRepository
}

func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		auditRepo:    auditRepo,
	}
}

func toCategoryResponse(c *model.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

func toProductResponse(p *model.Product) ProductResponse {
	res := ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		SKU:         p.SKU,
		Description: p.Description,
		CategoryID:  p.CategoryID.String(),
		Unit:        p.Unit,
		CostPrice:   p.CostPrice.StringFixed(2),
		SalePrice:   p.SalePrice.StringFixed(2),
		Quantity:    p.Quantity,
		MinQuantity: p.MinQuantity,
		MaxQuantity: p.MaxQuantity,
		ImageURL:    p.ImageURL,
		LowStock:    p.Quantity < p.MinQuantity,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	if p.Category != nil {
		res.CategoryName = p.Category.Name
	}
	return res
}

func parsePrice(raw, field string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.InvalidInput("invalid %s", field)
	}
	if price.IsNegative() {
		return decimal.Zero, apperr.InvalidInput("%s cannot be negative", field)
	}
	return price, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (CategoryResponse, error) {
	if _, err := s.categoryRepo.FindByName(ctx, req.Name); err == nil {
		return CategoryResponse{}, apperr.Conflict("category %q already exists", req.Name)
	}

	category := &model.Category{Name: req.Name, Description: req.Description}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return CategoryResponse{}, apperr.Internal("failed to create category", err)
	}

	return toCategoryResponse(category), nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id string, req UpdateCategoryRequest) (CategoryResponse, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return CategoryResponse{}, apperr.InvalidInput("invalid category id")
	}

	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CategoryResponse{}, apperr.NotFound("category not found")
		}
		return CategoryResponse{}, apperr.Internal("failed to load category", err)
	}

	if req.Name != "" && req.Name != category.Name {
		if _, findErr := s.categoryRepo.FindByName(ctx, req.Name); findErr == nil {
			return CategoryResponse{}, apperr.Conflict("category %q already exists", req.Name)
		}
		category.Name = req.Name
	}
	if req.Description != "" {
		category.Description = req.Description
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return CategoryResponse{}, apperr.Internal("failed to update category", err)
	}

	return toCategoryResponse(category), nil
}

// DeleteCategory refuses while products still belong to the category.
func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid category id")
	}

	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("category not found")
		}
		return apperr.Internal("failed to load category", err)
	}

	count, err := s.categoryRepo.CountProducts(ctx, categoryID)
	if err != nil {
		return apperr.Internal("failed to count products", err)
	}
	if count > 0 {
		return apperr.Conflict("category has %d product(s) and cannot be deleted", count)
	}

	return s.categoryRepo.Delete(ctx, categoryID)
}

func (s *catalogService) GetCategory(ctx context.Context, id string) (CategoryResponse, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return CategoryResponse{}, apperr.InvalidInput("invalid category id")
	}

	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CategoryResponse{}, apperr.NotFound("category not found")
		}
		return CategoryResponse{}, apperr.Internal("failed to load category", err)
	}

	return toCategoryResponse(category), nil
}

func (s *catalogService) ListCategories(ctx context.Context, page, limit int) ([]CategoryResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	categories, total, err := s.categoryRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list categories", err)
	}

	res := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		res = append(res, toCategoryResponse(&categories[i]))
	}
	return res, total, nil
}

// CreateProduct registers a product with zero stock. Initial stock enters
// through an entrada movement so the ledger covers the full history.
func (s *catalogService) CreateProduct(ctx context.Context, actorID string, req CreateProductRequest) (ProductResponse, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return ProductResponse{}, apperr.InvalidInput("invalid category id")
	}

	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, apperr.NotFound("category not found")
		}
		return ProductResponse{}, apperr.Internal("failed to load category", err)
	}

	if _, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil {
		return ProductResponse{}, apperr.Conflict("SKU %q already in use", req.SKU)
	}

	costPrice, err := parsePrice(req.CostPrice, "cost price")
	if err != nil {
		return ProductResponse{}, err
	}
	salePrice, err := parsePrice(req.SalePrice, "sale price")
	if err != nil {
		return ProductResponse{}, err
	}
	if req.MinQuantity < 0 {
		return ProductResponse{}, apperr.InvalidInput("min quantity cannot be negative")
	}
	if req.MaxQuantity != nil && *req.MaxQuantity < req.MinQuantity {
		return ProductResponse{}, apperr.InvalidInput("max quantity cannot be below min quantity")
	}

	product := &model.Product{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		CategoryID:  categoryID,
		Category:    category,
		Unit:        req.Unit,
		CostPrice:   costPrice,
		SalePrice:   salePrice,
		Quantity:    0,
		MinQuantity: req.MinQuantity,
		MaxQuantity: req.MaxQuantity,
		ImageURL:    req.ImageURL,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return ProductResponse{}, apperr.Internal("failed to create product", err)
	}

	s.audit(ctx, actorID, model.ActionCreateProduct, product.ID.String(), map[string]interface{}{
		"name": product.Name,
		"sku":  product.SKU,
	})

	return toProductResponse(product), nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, actorID, id string, req UpdateProductRequest) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, apperr.InvalidInput("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, apperr.NotFound("product not found")
		}
		return ProductResponse{}, apperr.Internal("failed to load product", err)
	}

	if req.SKU != "" && req.SKU != product.SKU {
		if _, findErr := s.productRepo.FindBySKU(ctx, req.SKU); findErr == nil {
			return ProductResponse{}, apperr.Conflict("SKU %q already in use", req.SKU)
		}
		product.SKU = req.SKU
	}
	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.CategoryID != "" {
		categoryID, parseErr := uuid.Parse(req.CategoryID)
		if parseErr != nil {
			return ProductResponse{}, apperr.InvalidInput("invalid category id")
		}
		category, findErr := s.categoryRepo.FindByID(ctx, categoryID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ProductResponse{}, apperr.NotFound("category not found")
			}
			return ProductResponse{}, apperr.Internal("failed to load category", findErr)
		}
		product.CategoryID = categoryID
		product.Category = category
	}
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if req.CostPrice != "" {
		costPrice, priceErr := parsePrice(req.CostPrice, "cost price")
		if priceErr != nil {
			return ProductResponse{}, priceErr
		}
		product.CostPrice = costPrice
	}
	if req.SalePrice != "" {
		salePrice, priceErr := parsePrice(req.SalePrice, "sale price")
		if priceErr != nil {
			return ProductResponse{}, priceErr
		}
		product.SalePrice = salePrice
	}
	if req.MinQuantity != nil {
		if *req.MinQuantity < 0 {
			return ProductResponse{}, apperr.InvalidInput("min quantity cannot be negative")
		}
		product.MinQuantity = *req.MinQuantity
	}
	if req.MaxQuantity != nil {
		product.MaxQuantity = req.MaxQuantity
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return ProductResponse{}, apperr.Internal("failed to update product", err)
	}

	s.audit(ctx, actorID, model.ActionUpdateProduct, product.ID.String(), map[string]interface{}{
		"name": product.Name,
	})

	return toProductResponse(product), nil
}

// DeleteProduct refuses while movements or project allocations reference the
// product, so the ledger never points at a missing row.
func (s *catalogService) DeleteProduct(ctx context.Context, actorID, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product not found")
		}
		return apperr.Internal("failed to load product", err)
	}

	refs, err := s.productRepo.CountReferences(ctx, productID)
	if err != nil {
		return apperr.Internal("failed to count references", err)
	}
	if refs > 0 {
		return apperr.Conflict("product is referenced by %d record(s) and cannot be deleted", refs)
	}

	if err := s.productRepo.Delete(ctx, productID); err != nil {
		return apperr.Internal("failed to delete product", err)
	}

	s.audit(ctx, actorID, model.ActionDeleteProduct, productID.String(), map[string]interface{}{
		"name": product.Name,
		"sku":  product.SKU,
	})

	return nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, apperr.InvalidInput("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, apperr.NotFound("product not found")
		}
		return ProductResponse{}, apperr.Internal("failed to load product", err)
	}

	return toProductResponse(product), nil
}

func (s *catalogService) ListProducts(ctx context.Context, page, limit int, categoryID, search string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var filter *uuid.UUID
	if categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return nil, 0, apperr.InvalidInput("invalid category id")
		}
		filter = &id
	}

	products, total, err := s.productRepo.List(ctx, page, limit, filter, search)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list products", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, total, nil
}

func (s *catalogService) ListLowStock(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list low stock products", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, nil
}

// Stats aggregates the whole catalog; the totals value stock at cost and at
// sale price.
func (s *catalogService) Stats(ctx context.Context) (InventoryStats, error) {
	var stats InventoryStats
	totalCost := decimal.Zero
	totalSale := decimal.Zero

	page := 1
	const batch = 200
	for {
		products, total, err := s.productRepo.List(ctx, page, batch, nil, "")
		if err != nil {
			return InventoryStats{}, apperr.Internal("failed to scan products", err)
		}
		stats.TotalProducts = total

		for i := range products {
			p := &products[i]
			qty := decimal.NewFromInt(int64(p.Quantity))
			totalCost = totalCost.Add(p.CostPrice.Mul(qty))
			totalSale = totalSale.Add(p.SalePrice.Mul(qty))
			if p.Quantity < p.MinQuantity {
				stats.LowStockCount++
			}
		}

		if int64(page*batch) >= total || len(products) == 0 {
			break
		}
		page++
	}

	stats.TotalCost = totalCost.StringFixed(2)
	stats.TotalSale = totalSale.StringFixed(2)
	return stats, nil
}

// audit records a catalog change; failures are ignored so bookkeeping never
// breaks the main operation.
func (s *catalogService) audit(ctx context.Context, actorID, action, recordID string, payload map[string]interface{}) {
	var actor *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		actor = &parsed
	}
	details, _ := json.Marshal(payload)
	_ = s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:   actor,
		Action:   action,
		Entity:   "products",
		RecordID: recordID,
		Details:  string(details),
	})
}
