package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectFilter narrows project listings; zero values mean "no filter".
type ProjectFilter struct {
	Status        string
	ResponsibleID *uuid.UUID
	StartAfter    *time.Time
	EndBefore     *time.Time
}

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context, page, limit int, filter ProjectFilter) ([]model.Project, int64, error)

	AddCollaborator(ctx context.Context, link *model.ProjectCollaborator) error
	FindCollaborator(ctx context.Context, projectID, userID uuid.UUID) (*model.ProjectCollaborator, error)
	ListCollaborators(ctx context.Context, projectID uuid.UUID) ([]model.ProjectCollaborator, error)
	RemoveCollaborator(ctx context.Context, projectID, userID uuid.UUID) error

	AddProduct(ctx context.Context, link *model.ProjectProduct) error
	UpdateProduct(ctx context.Context, link *model.ProjectProduct) error
	FindProduct(ctx context.Context, projectID, productID uuid.UUID) (*model.ProjectProduct, error)
	ListProducts(ctx context.Context, projectID uuid.UUID) ([]model.ProjectProduct, error)
	RemoveProduct(ctx context.Context, projectID, productID uuid.UUID) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return GetDB(ctx, r.db).Create(project).Error
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	return GetDB(ctx, r.db).Save(project).Error
}

// Delete removes the project together with its collaborator and product links.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("project_id = ?", id).Delete(&model.ProjectCollaborator{}).Error; err != nil {
		return err
	}
	if err := db.Where("project_id = ?", id).Delete(&model.ProjectProduct{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Project{}).Error
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := GetDB(ctx, r.db).Preload("Responsible").First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, page, limit int, filter ProjectFilter) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Project{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.ResponsibleID != nil {
		db = db.Where("responsible_id = ?", *filter.ResponsibleID)
	}
	if filter.StartAfter != nil {
		db = db.Where("start_date >= ?", *filter.StartAfter)
	}
	if filter.EndBefore != nil {
		db = db.Where("end_date <= ?", *filter.EndBefore)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Responsible").Order("created_at desc").Offset(offset).Limit(limit).Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (r *projectRepository) AddCollaborator(ctx context.Context, link *model.ProjectCollaborator) error {
	return GetDB(ctx, r.db).Create(link).Error
}

func (r *projectRepository) FindCollaborator(ctx context.Context, projectID, userID uuid.UUID) (*model.ProjectCollaborator, error) {
	var link model.ProjectCollaborator
	if err := GetDB(ctx, r.db).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *projectRepository) ListCollaborators(ctx context.Context, projectID uuid.UUID) ([]model.ProjectCollaborator, error) {
	var links []model.ProjectCollaborator
	err := GetDB(ctx, r.db).Preload("User").Where("project_id = ?", projectID).Find(&links).Error
	return links, err
}

func (r *projectRepository) RemoveCollaborator(ctx context.Context, projectID, userID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectCollaborator{}).Error
}

func (r *projectRepository) AddProduct(ctx context.Context, link *model.ProjectProduct) error {
	return GetDB(ctx, r.db).Create(link).Error
}

func (r *projectRepository) UpdateProduct(ctx context.Context, link *model.ProjectProduct) error {
	return GetDB(ctx, r.db).Save(link).Error
}

func (r *projectRepository) FindProduct(ctx context.Context, projectID, productID uuid.UUID) (*model.ProjectProduct, error) {
	var link model.ProjectProduct
	if err := GetDB(ctx, r.db).
		Where("project_id = ? AND product_id = ?", projectID, productID).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *projectRepository) ListProducts(ctx context.Context, projectID uuid.UUID) ([]model.ProjectProduct, error) {
	var links []model.ProjectProduct
	err := GetDB(ctx, r.db).Preload("Product").Where("project_id = ?", projectID).Find(&links).Error
	return links, err
}

func (r *projectRepository) RemoveProduct(ctx context.Context, projectID, productID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("project_id = ? AND product_id = ?", projectID, productID).
		Delete(&model.ProjectProduct{}).Error
}
