package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name          string `json:"name" binding:"required"`
	Location      string `json:"location"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date"`
	ResponsibleID string `json:"responsible_id" binding:"required"`
	Status        string `json:"status"`
	Description   string `json:"description"`
}

type UpdateProjectRequest struct {
	Name          string  `json:"name"`
	Location      *string `json:"location"`
	StartDate     string  `json:"start_date"`
	EndDate       *string `json:"end_date"`
	ResponsibleID string  `json:"responsible_id"`
	Status        string  `json:"status"`
	Description   *string `json:"description"`
}

type CollaboratorRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type AllocateProductRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Note      string `json:"note"`
}

type ProjectResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Location        string  `json:"location"`
	StartDate       string  `json:"start_date"`
	EndDate         *string `json:"end_date"`
	ResponsibleID   string  `json:"responsible_id"`
	ResponsibleName string  `json:"responsible_name,omitempty"`
	Status          string  `json:"status"`
	Description     string  `json:"description"`
	CreatedAt       string  `json:"created_at"`
}

type CollaboratorResponse struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
}

type AllocationResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
	Note        string `json:"note"`
}

type ProjectListFilter struct {
	Status        string
	ResponsibleID string
	Page          int
	Limit         int
}

// ProjectService manages projects, their collaborators and the products
// allocated to them. Allocations reserve nothing; actual stock consumption
// goes through the ledger with the project reference on the movement.
type ProjectService interface {
	CreateProject(ctx context.Context, req CreateProjectRequest) (ProjectResponse, error)
	GetProject(ctx context.Context, id string) (ProjectResponse, error)
	ListProjects(ctx context.Context, filter ProjectListFilter) ([]ProjectResponse, int64, error)
	UpdateProject(ctx context.Context, id string, req UpdateProjectRequest) (ProjectResponse, error)
	DeleteProject(ctx context.Context, id string) error

	AddCollaborator(ctx context.Context, projectID string, req CollaboratorRequest) (CollaboratorResponse, error)
	ListCollaborators(ctx context.Context, projectID string) ([]CollaboratorResponse, error)
	RemoveCollaborator(ctx context.Context, projectID, userID string) error

	AllocateProduct(ctx context.Context, projectID string, req AllocateProductRequest) (AllocationResponse, error)
	ListAllocations(ctx context.Context, projectID string) ([]AllocationResponse, error)
	RemoveAllocation(ctx context.Context, projectID, productID string) error
}

type projectService struct {
	projectRepo  repository.ProjectRepository
	userRepo     repository.UserRepository
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
}

func NewProjectService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.MovementRepository,
) ProjectService {
	return &projectService{
		projectRepo:  projectRepo,
		userRepo:     userRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
	}
}

func validProjectStatus(status string) bool {
	switch status {
	case model.ProjectPlanning, model.ProjectInProgress, model.ProjectDone, model.ProjectCancelled:
		return true
	}
	return false
}

func toProjectResponse(p *model.Project) ProjectResponse {
	res := ProjectResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Location:      p.Location,
		StartDate:     p.StartDate.Format("2006-01-02"),
		ResponsibleID: p.ResponsibleID.String(),
		Status:        p.Status,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
	if p.EndDate != nil {
		end := p.EndDate.Format("2006-01-02")
		res.EndDate = &end
	}
	if p.Responsible != nil {
		res.ResponsibleName = p.Responsible.Name
	}
	return res
}

func parseDate(raw, field string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apperr.InvalidInput("invalid %s, expected YYYY-MM-DD", field)
	}
	return t, nil
}

func (s *projectService) CreateProject(ctx context.Context, req CreateProjectRequest) (ProjectResponse, error) {
	responsibleID, err := uuid.Parse(req.ResponsibleID)
	if err != nil {
		return ProjectResponse{}, apperr.InvalidInput("invalid responsible id")
	}

	responsible, err := s.userRepo.FindByID(ctx, responsibleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProjectResponse{}, apperr.NotFound("responsible user not found")
		}
		return ProjectResponse{}, apperr.Internal("failed to load user", err)
	}

	startDate, err := parseDate(req.StartDate, "start date")
	if err != nil {
		return ProjectResponse{}, err
	}

	var endDate *time.Time
	if req.EndDate != "" {
		parsed, dateErr := parseDate(req.EndDate, "end date")
		if dateErr != nil {
			return ProjectResponse{}, dateErr
		}
		if parsed.Before(startDate) {
			return ProjectResponse{}, apperr.InvalidInput("end date cannot be before start date")
		}
		endDate = &parsed
	}

	status := req.Status
	if status == "" {
		status = model.ProjectPlanning
	}
	if !validProjectStatus(status) {
		return ProjectResponse{}, apperr.InvalidInput("invalid project status")
	}

	project := &model.Project{
		Name:          req.Name,
		Location:      req.Location,
		StartDate:     startDate,
		EndDate:       endDate,
		ResponsibleID: responsibleID,
		Responsible:   responsible,
		Status:        status,
		Description:   req.Description,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return ProjectResponse{}, apperr.Internal("failed to create project", err)
	}

	// The responsible user is always a collaborator.
	link := &model.ProjectCollaborator{ProjectID: project.ID, UserID: responsibleID}
	if err := s.projectRepo.AddCollaborator(ctx, link); err != nil {
		return ProjectResponse{}, apperr.Internal("failed to link responsible", err)
	}

	return toProjectResponse(project), nil
}

func (s *projectService) GetProject(ctx context.Context, id string) (ProjectResponse, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return ProjectResponse{}, apperr.InvalidInput("invalid project id")
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProjectResponse{}, apperr.NotFound("project not found")
		}
		return ProjectResponse{}, apperr.Internal("failed to load project", err)
	}

	return toProjectResponse(project), nil
}

func (s *projectService) ListProjects(ctx context.Context, filter ProjectListFilter) ([]ProjectResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.ProjectFilter{Status: filter.Status}
	if filter.ResponsibleID != "" {
		id, err := uuid.Parse(filter.ResponsibleID)
		if err != nil {
			return nil, 0, apperr.InvalidInput("invalid responsible id")
		}
		repoFilter.ResponsibleID = &id
	}

	projects, total, err := s.projectRepo.List(ctx, filter.Page, filter.Limit, repoFilter)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list projects", err)
	}

	res := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		res = append(res, toProjectResponse(&projects[i]))
	}
	return res, total, nil
}

func (s *projectService) UpdateProject(ctx context.Context, id string, req UpdateProjectRequest) (ProjectResponse, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return ProjectResponse{}, apperr.InvalidInput("invalid project id")
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProjectResponse{}, apperr.NotFound("project not found")
		}
		return ProjectResponse{}, apperr.Internal("failed to load project", err)
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Location != nil {
		project.Location = *req.Location
	}
	if req.StartDate != "" {
		startDate, dateErr := parseDate(req.StartDate, "start date")
		if dateErr != nil {
			return ProjectResponse{}, dateErr
		}
		project.StartDate = startDate
	}
	if req.EndDate != nil {
		if *req.EndDate == "" {
			project.EndDate = nil
		} else {
			endDate, dateErr := parseDate(*req.EndDate, "end date")
			if dateErr != nil {
				return ProjectResponse{}, dateErr
			}
			if endDate.Before(project.StartDate) {
				return ProjectResponse{}, apperr.InvalidInput("end date cannot be before start date")
			}
			project.EndDate = &endDate
		}
	}
	if req.ResponsibleID != "" {
		responsibleID, parseErr := uuid.Parse(req.ResponsibleID)
		if parseErr != nil {
			return ProjectResponse{}, apperr.InvalidInput("invalid responsible id")
		}
		responsible, findErr := s.userRepo.FindByID(ctx, responsibleID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ProjectResponse{}, apperr.NotFound("responsible user not found")
			}
			return ProjectResponse{}, apperr.Internal("failed to load user", findErr)
		}
		project.ResponsibleID = responsibleID
		project.Responsible = responsible

		// The new responsible joins the collaborator list if not present.
		if _, linkErr := s.projectRepo.FindCollaborator(ctx, projectID, responsibleID); errors.Is(linkErr, gorm.ErrRecordNotFound) {
			link := &model.ProjectCollaborator{ProjectID: projectID, UserID: responsibleID}
			if addErr := s.projectRepo.AddCollaborator(ctx, link); addErr != nil {
				return ProjectResponse{}, apperr.Internal("failed to link responsible", addErr)
			}
		}
	}
	if req.Status != "" {
		if !validProjectStatus(req.Status) {
			return ProjectResponse{}, apperr.InvalidInput("invalid project status")
		}
		project.Status = req.Status
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return ProjectResponse{}, apperr.Internal("failed to update project", err)
	}

	return toProjectResponse(project), nil
}

// DeleteProject refuses while movements reference the project so the ledger
// history stays resolvable.
func (s *projectService) DeleteProject(ctx context.Context, id string) error {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid project id")
	}

	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("project not found")
		}
		return apperr.Internal("failed to load project", err)
	}

	_, total, err := s.movementRepo.List(ctx, 1, 1, repository.MovementFilter{ProjectID: &projectID})
	if err != nil {
		return apperr.Internal("failed to count movements", err)
	}
	if total > 0 {
		return apperr.Conflict("project has %d movement(s) and cannot be deleted", total)
	}

	return s.projectRepo.Delete(ctx, projectID)
}

func (s *projectService) AddCollaborator(ctx context.Context, projectID string, req CollaboratorRequest) (CollaboratorResponse, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return CollaboratorResponse{}, apperr.InvalidInput("invalid project id")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return CollaboratorResponse{}, apperr.InvalidInput("invalid user id")
	}

	if _, err := s.projectRepo.FindByID(ctx, pid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CollaboratorResponse{}, apperr.NotFound("project not found")
		}
		return CollaboratorResponse{}, apperr.Internal("failed to load project", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CollaboratorResponse{}, apperr.NotFound("user not found")
		}
		return CollaboratorResponse{}, apperr.Internal("failed to load user", err)
	}

	if _, err := s.projectRepo.FindCollaborator(ctx, pid, userID); err == nil {
		return CollaboratorResponse{}, apperr.Conflict("user is already a collaborator")
	}

	link := &model.ProjectCollaborator{ProjectID: pid, UserID: userID}
	if err := s.projectRepo.AddCollaborator(ctx, link); err != nil {
		return CollaboratorResponse{}, apperr.Internal("failed to add collaborator", err)
	}

	return CollaboratorResponse{UserID: userID.String(), UserName: user.Name}, nil
}

func (s *projectService) ListCollaborators(ctx context.Context, projectID string) ([]CollaboratorResponse, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return nil, apperr.InvalidInput("invalid project id")
	}

	links, err := s.projectRepo.ListCollaborators(ctx, pid)
	if err != nil {
		return nil, apperr.Internal("failed to list collaborators", err)
	}

	res := make([]CollaboratorResponse, 0, len(links))
	for _, link := range links {
		cr := CollaboratorResponse{UserID: link.UserID.String()}
		if link.User != nil {
			cr.UserName = link.User.Name
		}
		res = append(res, cr)
	}
	return res, nil
}

// RemoveCollaborator refuses to remove the responsible user; reassign the
// project first.
func (s *projectService) RemoveCollaborator(ctx context.Context, projectID, userID string) error {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return apperr.InvalidInput("invalid project id")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return apperr.InvalidInput("invalid user id")
	}

	project, err := s.projectRepo.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("project not found")
		}
		return apperr.Internal("failed to load project", err)
	}

	if project.ResponsibleID == uid {
		return apperr.InvalidInput("cannot remove the responsible user from the project")
	}

	if _, err := s.projectRepo.FindCollaborator(ctx, pid, uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("collaborator not found")
		}
		return apperr.Internal("failed to load collaborator", err)
	}

	return s.projectRepo.RemoveCollaborator(ctx, pid, uid)
}

func (s *projectService) AllocateProduct(ctx context.Context, projectID string, req AllocateProductRequest) (AllocationResponse, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return AllocationResponse{}, apperr.InvalidInput("invalid project id")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return AllocationResponse{}, apperr.InvalidInput("invalid product id")
	}
	if req.Quantity <= 0 {
		return AllocationResponse{}, apperr.InvalidInput("quantity must be greater than zero")
	}

	if _, err := s.projectRepo.FindByID(ctx, pid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AllocationResponse{}, apperr.NotFound("project not found")
		}
		return AllocationResponse{}, apperr.Internal("failed to load project", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AllocationResponse{}, apperr.NotFound("product not found")
		}
		return AllocationResponse{}, apperr.Internal("failed to load product", err)
	}

	// One allocation per (project, product): allocating again updates the
	// quantity instead of duplicating the row.
	existing, findErr := s.projectRepo.FindProduct(ctx, pid, productID)
	if findErr == nil {
		existing.Quantity = req.Quantity
		if req.Note != "" {
			existing.Note = req.Note
		}
		if updErr := s.projectRepo.UpdateProduct(ctx, existing); updErr != nil {
			return AllocationResponse{}, apperr.Internal("failed to update allocation", updErr)
		}
		return AllocationResponse{
			ProductID:   productID.String(),
			ProductName: product.Name,
			Quantity:    existing.Quantity,
			Note:        existing.Note,
		}, nil
	}
	if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return AllocationResponse{}, apperr.Internal("failed to load allocation", findErr)
	}

	link := &model.ProjectProduct{
		ProjectID: pid,
		ProductID: productID,
		Quantity:  req.Quantity,
		Note:      req.Note,
	}
	if err := s.projectRepo.AddProduct(ctx, link); err != nil {
		return AllocationResponse{}, apperr.Internal("failed to allocate product", err)
	}

	return AllocationResponse{
		ProductID:   productID.String(),
		ProductName: product.Name,
		Quantity:    link.Quantity,
		Note:        link.Note,
	}, nil
}

func (s *projectService) ListAllocations(ctx context.Context, projectID string) ([]AllocationResponse, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return nil, apperr.InvalidInput("invalid project id")
	}

	links, err := s.projectRepo.ListProducts(ctx, pid)
	if err != nil {
		return nil, apperr.Internal("failed to list allocations", err)
	}

	res := make([]AllocationResponse, 0, len(links))
	for _, link := range links {
		ar := AllocationResponse{
			ProductID: link.ProductID.String(),
			Quantity:  link.Quantity,
			Note:      link.Note,
		}
		if link.Product != nil {
			ar.ProductName = link.Product.Name
		}
		res = append(res, ar)
	}
	return res, nil
}

func (s *projectService) RemoveAllocation(ctx context.Context, projectID, productID string) error {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return apperr.InvalidInput("invalid project id")
	}
	prodID, err := uuid.Parse(productID)
	if err != nil {
		return apperr.InvalidInput("invalid product id")
	}

	if _, err := s.projectRepo.FindProduct(ctx, pid, prodID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("allocation not found")
		}
		return apperr.Internal("failed to load allocation", err)
	}

	return s.projectRepo.RemoveProduct(ctx, pid, prodID)
}
