package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleRegular, model.RoleReadOnly)
	writer := middleware.RequireRole(model.RoleAdmin, model.RoleRegular)

	projects := router.Group("/api/projects")
	{
		projects.GET("", staff, h.ListProjects)
		projects.POST("", writer, h.CreateProject)
		projects.GET("/:id", staff, h.GetProject)
		projects.PUT("/:id", writer, h.UpdateProject)
		projects.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteProject)

		projects.GET("/:id/collaborators", staff, h.ListCollaborators)
		projects.POST("/:id/collaborators", writer, h.AddCollaborator)
		projects.DELETE("/:id/collaborators/:userId", writer, h.RemoveCollaborator)

		projects.GET("/:id/products", staff, h.ListAllocations)
		projects.POST("/:id/products", writer, h.AllocateProduct)
		projects.DELETE("/:id/products/:productId", writer, h.RemoveAllocation)
	}
}

// CreateProject creates a project; the responsible becomes a collaborator
// @Summary      Create project
// @Tags         projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateProjectRequest  true  "Project payload"
// @Success      201  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, project))
}

// ListProjects returns paginated projects with optional filters
// @Summary      List projects
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        page            query  int     false  "Page number (default: 1)"
// @Param        limit           query  int     false  "Items per page (default: 20)"
// @Param        status          query  string  false  "Filter by status"
// @Param        responsible_id  query  string  false  "Filter by responsible user"
// @Success      200  {object}  response.Response
// @Router       /api/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.ProjectListFilter{
		Status:        c.Query("status"),
		ResponsibleID: c.Query("responsible_id"),
		Page:          params.Page,
		Limit:         params.Limit,
	}

	projects, total, err := h.projectService.ListProjects(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, projects, params.Page, params.Limit, total))
}

// GetProject returns one project
// @Summary      Get project
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Project ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, project))
}

// UpdateProject updates project fields
// @Summary      Update project
// @Tags         projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Project ID"
// @Param        payload  body  service.UpdateProjectRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Router       /api/projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req service.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, project))
}

// DeleteProject removes a project without ledger history (admin only)
// @Summary      Delete project
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Project ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projectService.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "project deleted"}))
}

// ListCollaborators returns the project's collaborators
// @Summary      List collaborators
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Project ID"
// @Success      200  {object}  response.Response
// @Router       /api/projects/{id}/collaborators [get]
func (h *ProjectHandler) ListCollaborators(c *gin.Context) {
	collaborators, err := h.projectService.ListCollaborators(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, collaborators))
}

// AddCollaborator links a user to the project
// @Summary      Add collaborator
// @Tags         projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Project ID"
// @Param        payload  body  service.CollaboratorRequest  true  "Collaborator payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/projects/{id}/collaborators [post]
func (h *ProjectHandler) AddCollaborator(c *gin.Context) {
	var req service.CollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	collaborator, err := h.projectService.AddCollaborator(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, collaborator))
}

// RemoveCollaborator unlinks a user; the responsible cannot be removed
// @Summary      Remove collaborator
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id      path  string  true  "Project ID"
// @Param        userId  path  string  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/projects/{id}/collaborators/{userId} [delete]
func (h *ProjectHandler) RemoveCollaborator(c *gin.Context) {
	if err := h.projectService.RemoveCollaborator(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "collaborator removed"}))
}

// ListAllocations returns the products allocated to the project
// @Summary      List allocations
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Project ID"
// @Success      200  {object}  response.Response
// @Router       /api/projects/{id}/products [get]
func (h *ProjectHandler) ListAllocations(c *gin.Context) {
	allocations, err := h.projectService.ListAllocations(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, allocations))
}

// AllocateProduct plans a product quantity for the project
// @Summary      Allocate product
// @Tags         projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                          true  "Project ID"
// @Param        payload  body  service.AllocateProductRequest  true  "Allocation payload"
// @Success      201  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/projects/{id}/products [post]
func (h *ProjectHandler) AllocateProduct(c *gin.Context) {
	var req service.AllocateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	allocation, err := h.projectService.AllocateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, allocation))
}

// RemoveAllocation drops a planned product from the project
// @Summary      Remove allocation
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id         path  string  true  "Project ID"
// @Param        productId  path  string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/projects/{id}/products/{productId} [delete]
func (h *ProjectHandler) RemoveAllocation(c *gin.Context) {
	if err := h.projectService.RemoveAllocation(c.Request.Context(), c.Param("id"), c.Param("productId")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "allocation removed"}))
}
