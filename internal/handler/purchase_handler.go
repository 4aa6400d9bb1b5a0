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

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleRegular, model.RoleReadOnly)
	writer := middleware.RequireRole(model.RoleAdmin, model.RoleRegular)

	purchases := router.Group("/api/purchases")
	{
		purchases.GET("", staff, h.ListPurchases)
		purchases.POST("", writer, h.FinalizePurchase)
		purchases.GET("/:id", staff, h.GetPurchase)
		purchases.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeletePurchase)
	}

	// Storefront self-service: the customer comes from the token.
	me := router.Group("/api/me/purchases", middleware.RequireCustomer())
	{
		me.POST("", h.Checkout)
		me.GET("", h.ListMyPurchases)
	}
}

// CheckoutRequest is the storefront order payload. The customer is taken
// from the token, so only the lines are sent.
type CheckoutRequest struct {
	Items []service.PurchaseLineRequest `json:"items" binding:"required"`
}

// Checkout finalizes an order for the authenticated customer
// @Summary      Customer checkout
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  handler.CheckoutRequest  true  "Order lines"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/me/purchases [post]
func (h *PurchaseHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	purchase, err := h.purchaseService.Checkout(c.Request.Context(), middleware.CustomerID(c), req.Items)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// ListMyPurchases returns the authenticated customer's own purchases
// @Summary      Customer purchase history
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default: 1)"
// @Param        limit  query  int  false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/me/purchases [get]
func (h *PurchaseHandler) ListMyPurchases(c *gin.Context) {
	params := pagination.Parse(c)

	purchases, total, err := h.purchaseService.ListPurchases(
		c.Request.Context(), params.Page, params.Limit, middleware.CustomerID(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, purchases, params.Page, params.Limit, total))
}

// FinalizePurchase closes an order, debiting every line from stock atomically
// @Summary      Finalize purchase
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.FinalizePurchaseRequest  true  "Purchase payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/purchases [post]
func (h *PurchaseHandler) FinalizePurchase(c *gin.Context) {
	var req service.FinalizePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	purchase, err := h.purchaseService.FinalizePurchase(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// ListPurchases returns paginated purchases with optional customer filter
// @Summary      List purchases
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        page         query  int     false  "Page number (default: 1)"
// @Param        limit        query  int     false  "Items per page (default: 20)"
// @Param        customer_id  query  string  false  "Filter by customer"
// @Success      200  {object}  response.Response
// @Router       /api/purchases [get]
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	params := pagination.Parse(c)

	purchases, total, err := h.purchaseService.ListPurchases(
		c.Request.Context(), params.Page, params.Limit, c.Query("customer_id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, purchases, params.Page, params.Limit, total))
}

// GetPurchase returns one purchase with its items
// @Summary      Get purchase
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Purchase ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// DeletePurchase removes the record without restoring stock (admin only)
// @Summary      Delete purchase
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Purchase ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/{id} [delete]
func (h *PurchaseHandler) DeletePurchase(c *gin.Context) {
	if err := h.purchaseService.DeletePurchase(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "purchase deleted"}))
}
