package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backend/internal/database"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newPurchaseRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := service.NewPurchaseService(
		repository.NewPurchaseRepository(db),
		repository.NewProductRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewMovementRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		nil,
	)

	router := gin.New()
	NewPurchaseHandler(svc).RegisterRoutes(router.Group(""))
	return router
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	claims["exp"] = time.Now().Add(time.Hour).Unix()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.GetJWTSecret())
	require.NoError(t, err)
	return signed
}

func TestCheckoutRoute(t *testing.T) {
	db := newHandlerTestDB(t)
	router := newPurchaseRouter(db)

	customer := &model.Customer{Name: "Cliente", Email: "cliente@example.com", Password: "hash"}
	require.NoError(t, db.Create(customer).Error)
	category := &model.Category{Name: "Ferramentas"}
	require.NoError(t, db.Create(category).Error)
	product := &model.Product{
		Name:       "Martelo",
		SKU:        "SKU-0001",
		CategoryID: category.ID,
		Unit:       "un",
		CostPrice:  decimal.NewFromFloat(10.00),
		SalePrice:  decimal.NewFromFloat(25.50),
		Quantity:   10,
	}
	require.NoError(t, db.Create(product).Error)

	body := fmt.Sprintf(`{"items":[{"product_id":"%s","quantity":2}]}`, product.ID.String())
	customerBearer := signToken(t, jwt.MapClaims{"sub": customer.ID.String(), "tipo": "cliente"})

	checkout := func(bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/me/purchases", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("customer token checks out its own order", func(t *testing.T) {
		rec := checkout(customerBearer)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var purchases []model.Purchase
		require.NoError(t, db.Where("customer_id = ?", customer.ID).Find(&purchases).Error)
		require.Len(t, purchases, 1)

		var stored model.Product
		require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
		assert.Equal(t, 8, stored.Quantity)

		var movement model.Movement
		require.NoError(t, db.First(&movement, "product_id = ?", product.ID).Error)
		assert.Nil(t, movement.UserID)
	})

	t.Run("staff token cannot use the storefront route", func(t *testing.T) {
		staffBearer := signToken(t, jwt.MapClaims{"sub": uuid.NewString(), "role": model.RoleRegular})
		rec := checkout(staffBearer)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		rec := checkout("")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("customer lists own purchases", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me/purchases", nil)
		req.Header.Set("Authorization", "Bearer "+customerBearer)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), customer.ID.String())
	})
}
