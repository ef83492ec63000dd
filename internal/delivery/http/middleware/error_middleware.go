package middleware

import (
	"errors"
	"net/http"

	"go-compensation-backend/internal/delivery/http/response"
	"go-compensation-backend/pkg/apperror"
	"go-compensation-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler maps errors appended to the gin context onto the standard
// envelope. AppErrors keep their code and message; anything else is logged
// server-side and surfaced as a generic 500 so internals never leak.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				response.Error(c, appErr.Code, appErr.Message, nil)
			} else {
				logger.Log.Error("Unhandled request error", "path", c.FullPath(), "error", err)
				response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
			}
		}
	}
}
