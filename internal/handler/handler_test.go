package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"backend/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFailStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(prepare func(c *gin.Context), err error) int {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		if prepare != nil {
			prepare(c)
		}
		fail(c, err)
		return rec.Code
	}

	t.Run("anonymous permission error is unauthorized", func(t *testing.T) {
		code := run(nil, apperr.PermissionDenied("no access"))
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("staff caller keeps forbidden", func(t *testing.T) {
		code := run(func(c *gin.Context) {
			c.Set("userID", "11111111-1111-1111-1111-111111111111")
		}, apperr.PermissionDenied("no access"))
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("customer caller keeps forbidden", func(t *testing.T) {
		code := run(func(c *gin.Context) {
			c.Set("customerID", "22222222-2222-2222-2222-222222222222")
		}, apperr.PermissionDenied("no access"))
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("not found is untouched", func(t *testing.T) {
		code := run(nil, apperr.NotFound("missing"))
		assert.Equal(t, http.StatusNotFound, code)
	})
}
