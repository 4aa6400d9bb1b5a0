package handler

import (
	"net/http"
	"strconv"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleRegular, model.RoleReadOnly)
	writer := middleware.RequireRole(model.RoleAdmin, model.RoleRegular)

	movements := router.Group("/api/movements")
	{
		movements.GET("", staff, h.ListMovements)
		movements.POST("", writer, h.RecordMovement)
		movements.GET("/recent", staff, h.RecentMovements)
		movements.GET("/:id", staff, h.GetMovement)
		movements.PUT("/:id", writer, h.UpdateMovement)
		movements.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteMovement)
	}
}

// RecordMovement registers an entrada or saida and adjusts the stock
// @Summary      Record stock movement
// @Tags         movements
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.RecordMovementRequest  true  "Movement payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/movements [post]
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var req service.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.stockService.RecordMovement(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// ListMovements returns the paginated ledger with optional filters
// @Summary      List movements
// @Tags         movements
// @Security     BearerAuth
// @Produce      json
// @Param        page        query  int     false  "Page number (default: 1)"
// @Param        limit       query  int     false  "Items per page (default: 20)"
// @Param        product_id  query  string  false  "Filter by product"
// @Param        project_id  query  string  false  "Filter by project"
// @Param        type        query  string  false  "Filter by type: entrada, saida"
// @Param        from        query  string  false  "Start date (RFC3339)"
// @Param        to          query  string  false  "End date (RFC3339)"
// @Success      200  {object}  response.Response
// @Router       /api/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.MovementListFilter{
		ProductID: c.Query("product_id"),
		ProjectID: c.Query("project_id"),
		Type:      c.Query("type"),
		Page:      params.Page,
		Limit:     params.Limit,
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid from date, expected RFC3339"))
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid to date, expected RFC3339"))
			return
		}
		filter.To = &to
	}

	movements, total, err := h.stockService.ListMovements(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, movements, params.Page, params.Limit, total))
}

// RecentMovements returns the latest movements for the dashboard
// @Summary      Recent movements
// @Tags         movements
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query  int  false  "Number of entries (default: 5)"
// @Success      200  {object}  response.Response
// @Router       /api/movements/recent [get]
func (h *StockHandler) RecentMovements(c *gin.Context) {
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	movements, err := h.stockService.RecentMovements(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, movements))
}

// GetMovement returns one movement
// @Summary      Get movement
// @Tags         movements
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Movement ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/movements/{id} [get]
func (h *StockHandler) GetMovement(c *gin.Context) {
	movement, err := h.stockService.GetMovement(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, movement))
}

// UpdateMovement changes the movement note; other fields are immutable
// @Summary      Update movement note
// @Tags         movements
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Movement ID"
// @Param        payload  body  service.UpdateMovementRequest  true  "Note payload"
// @Success      200  {object}  response.Response
// @Router       /api/movements/{id} [put]
func (h *StockHandler) UpdateMovement(c *gin.Context) {
	var req service.UpdateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.stockService.UpdateMovementNote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, movement))
}

// DeleteMovement reverses the stock effect and removes the entry (admin only)
// @Summary      Delete movement
// @Tags         movements
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Movement ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/movements/{id} [delete]
func (h *StockHandler) DeleteMovement(c *gin.Context) {
	if err := h.stockService.DeleteMovement(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "movement deleted"}))
}
