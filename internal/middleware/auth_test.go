package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signStaffToken(t *testing.T, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "11111111-1111-1111-1111-111111111111",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(GetJWTSecret())
	require.NoError(t, err)
	return signed
}

func signCustomerToken(t *testing.T) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "22222222-2222-2222-2222-222222222222",
		"tipo": "cliente",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(GetJWTSecret())
	require.NoError(t, err)
	return signed
}

func perform(router *gin.Engine, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/probe", RequireRole(model.RoleAdmin, model.RoleRegular), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})

	t.Run("missing token", func(t *testing.T) {
		rec := perform(router, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := perform(router, "not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("allowed role passes and exposes the caller", func(t *testing.T) {
		rec := perform(router, signStaffToken(t, model.RoleRegular))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "11111111-1111-1111-1111-111111111111")
	})

	t.Run("role outside the list is forbidden", func(t *testing.T) {
		rec := perform(router, signStaffToken(t, model.RoleReadOnly))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("customer token never reaches staff routes", func(t *testing.T) {
		rec := perform(router, signCustomerToken(t))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/probe", OptionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		rec := perform(router, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"user_id":""`)
	})

	t.Run("staff token resolves the caller", func(t *testing.T) {
		rec := perform(router, signStaffToken(t, model.RoleRegular))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "11111111-1111-1111-1111-111111111111")
	})

	t.Run("broken token is rejected, not downgraded", func(t *testing.T) {
		rec := perform(router, "tampered.token.value")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("customer token browses as anonymous", func(t *testing.T) {
		rec := perform(router, signCustomerToken(t))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"user_id":""`)
	})
}

func TestRequireCustomer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/probe", RequireCustomer(), func(c *gin.Context) {
		id, _ := c.Get("customerID")
		c.JSON(http.StatusOK, gin.H{"customer_id": id})
	})

	t.Run("customer token passes", func(t *testing.T) {
		rec := perform(router, signCustomerToken(t))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "22222222-2222-2222-2222-222222222222")
	})

	t.Run("staff token is forbidden", func(t *testing.T) {
		rec := perform(router, signStaffToken(t, model.RoleAdmin))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := perform(router, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
