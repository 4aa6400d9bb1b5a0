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

type BoardHandler struct {
	boardService service.BoardService
}

func NewBoardHandler(boardService service.BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

// RegisterRoutes wires the board endpoints. Reads run under OptionalAuth so
// anonymous callers can see public boards; mutations require a staff token
// and the per-board access rules decide from there.
func (h *BoardHandler) RegisterRoutes(router *gin.RouterGroup) {
	authed := middleware.RequireRole(model.RoleAdmin, model.RoleRegular, model.RoleReadOnly)

	boards := router.Group("/api/boards")
	{
		boards.GET("", middleware.OptionalAuth(), h.ListBoards)
		boards.POST("", authed, h.CreateBoard)
		boards.GET("/:id", middleware.OptionalAuth(), h.GetBoard)
		boards.PUT("/:id", authed, h.UpdateBoard)
		boards.DELETE("/:id", authed, h.DeleteBoard)

		boards.POST("/:id/items", authed, h.AddItem)
		boards.PUT("/:id/items/:itemId", authed, h.UpdateItem)
		boards.DELETE("/:id/items/:itemId", authed, h.RemoveItem)

		boards.POST("/:id/actions", authed, h.AddAction)
		boards.PUT("/:id/actions/:actionId", authed, h.UpdateAction)
		boards.DELETE("/:id/actions/:actionId", authed, h.RemoveAction)

		boards.PUT("/:id/cells/:cellId", authed, h.SetCell)

		boards.POST("/:id/grants", authed, h.Grant)
		boards.DELETE("/:id/grants/:userId", authed, h.Revoke)
	}
}

// CreateBoard creates a board with its initial items x actions grid
// @Summary      Create board
// @Tags         boards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateBoardRequest  true  "Board payload"
// @Success      201  {object}  response.Response
// @Router       /api/boards [post]
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	var req service.CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	board, err := h.boardService.CreateBoard(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, board))
}

// ListBoards returns the boards visible to the caller
// @Summary      List boards
// @Tags         boards
// @Produce      json
// @Param        page   query  int  false  "Page number (default: 1)"
// @Param        limit  query  int  false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/boards [get]
func (h *BoardHandler) ListBoards(c *gin.Context) {
	params := pagination.Parse(c)

	boards, total, err := h.boardService.ListBoards(c.Request.Context(), middleware.UserID(c), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, boards, params.Page, params.Limit, total))
}

// GetBoard returns the full board grid when the caller may read it
// @Summary      Get board
// @Tags         boards
// @Produce      json
// @Param        id  path  string  true  "Board ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/boards/{id} [get]
func (h *BoardHandler) GetBoard(c *gin.Context) {
	board, err := h.boardService.GetBoard(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, board))
}

// UpdateBoard updates title, description or visibility
// @Summary      Update board
// @Tags         boards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                      true  "Board ID"
// @Param        payload  body  service.UpdateBoardRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/boards/{id} [put]
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	var req service.UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	board, err := h.boardService.UpdateBoard(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, board))
}

// DeleteBoard removes the board with its grid and grants
// @Summary      Delete board
// @Tags         boards
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Board ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/boards/{id} [delete]
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	if err := h.boardService.DeleteBoard(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "board deleted"}))
}

// AddItem appends a row and extends the grid
// @Summary      Add board item
// @Tags         boards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Board ID"
// @Param        payload  body  service.BoardEntryRequest  true  "Item payload"
// @Success      201  {object}  response.Response
// @Router       /api/boards/{id}/items [post]
func (h *BoardHandler) AddItem(c *gin.Context) {
	var req service.BoardEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.boardService.AddItem(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem renames or reorders a row
// @Summary      Update board item
// @Tags         boards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                      true  "Board ID"
// @Param        itemId   path  string                      true  "Item ID"
// @Param        payload  body  service.RenameEntryRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Router       /api/boards/{id}/items/{itemId} [put]
func (h *BoardHandler) UpdateItem(c *gin.Context) {
	var req service.RenameEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.boardService.UpdateItem(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("itemId"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// RemoveItem drops a row and its cells
// @Summary      Remove board item
// @Tags         boards
// @Security     BearerAuth
// @Produce      json
// @Param        id      path  string  true  "Board ID"
// @Param        itemId  path  string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Router       /api/boards/{id}/items/{itemId} [delete]
func (h *BoardHandler) RemoveItem(c *gin.Context) {
	if err := h.boardService.RemoveItem(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("itemId")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "item removed"}))
}

// AddAction appends a column and extends the grid
// @Summary      Add board action
// @Tags         boards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Board ID"
// @Param        payload  body  service.BoardEntryRequest  true  "Action payload"
// @Success      201  {object}  response.Response
// @Router       /api/boards/{id}/actions [post]
func (h *BoardHandler) AddAction(c *gin.Context) {
	var req service.BoardEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	action, err := h.boardService.AddAction(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, action))
}

// UpdateAction renames or reorders a column
// @Summary      Update board action
// @Tags         boards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id        path  string                      true  "Board ID"
// @Param        actionId  path  string                      true  "Action ID"
// @Param        payload   body  service.RenameEntryRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Router       /api/boards/{id}/actions/{actionId} [put]
func (h *BoardHandler) UpdateAction(c *gin.Context) {
	var req service.RenameEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	action, err := h.boardService.UpdateAction(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("actionId"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, action))
}

// RemoveAction drops a column and its cells
// @Summary      Remove board action
// @Tags         boards
// @Security     BearerAuth
// @Produce      json
// @Param        id        path  string  true  "Board ID"
// @Param        actionId  path  string  true  "Action ID"
// @Success      200  {object}  response.Response
// @Router       /api/boards/{id}/actions/{actionId} [delete]
func (h *BoardHandler) RemoveAction(c *gin.Context) {
	if err := h.boardService.RemoveAction(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("actionId")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "action removed"}))
}

// SetCell toggles a cell's done or active flag
// @Summary      Update board cell
// @Tags         boards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Board ID"
// @Param        cellId   path  string                     true  "Cell ID"
// @Param        payload  body  service.CellUpdateRequest  true  "Cell payload"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/boards/{id}/cells/{cellId} [put]
func (h *BoardHandler) SetCell(c *gin.Context) {
	var req service.CellUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	cell, err := h.boardService.SetCell(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("cellId"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cell))
}

// Grant gives a user read or edit access to the board
// @Summary      Grant board access
// @Tags         boards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                true  "Board ID"
// @Param        payload  body  service.GrantRequest  true  "Grant payload"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/boards/{id}/grants [post]
func (h *BoardHandler) Grant(c *gin.Context) {
	var req service.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	grant, err := h.boardService.Grant(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, grant))
}

// Revoke removes a user's access grant
// @Summary      Revoke board access
// @Tags         boards
// @Security     BearerAuth
// @Produce      json
// @Param        id      path  string  true  "Board ID"
// @Param        userId  path  string  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/boards/{id}/grants/{userId} [delete]
func (h *BoardHandler) Revoke(c *gin.Context) {
	if err := h.boardService.Revoke(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("userId")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "grant revoked"}))
}
