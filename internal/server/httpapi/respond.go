package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault/internal/common"
)

func respondSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps the service sentinels onto HTTP statuses and
// stable machine-readable codes. Anything unrecognized is reported as an
// internal error without leaking detail.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request")
	case errors.Is(err, common.ErrorUnauthorized):
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, common.ErrorForbidden):
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, common.ErrorNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		respondError(c, http.StatusConflict, "CONFLICT", "Resource already exists")
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
