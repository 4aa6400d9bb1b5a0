package handler

import (
	"net/http"

	"backend/internal/apperr"
	"backend/internal/middleware"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// fail translates a service error into the standard error envelope using the
// error's kind for the status code. A permission error becomes 401 instead of
// 403 when the caller never authenticated at all.
func fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusForbidden && middleware.UserID(c) == "" && middleware.CustomerID(c) == "" {
		status = http.StatusUnauthorized
	}
	c.JSON(status, response.Error(status, err.Error()))
}
