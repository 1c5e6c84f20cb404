package handler

import (
	"tubevault/internal/model"

	"github.com/gin-gonic/gin"
)

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, model.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}
