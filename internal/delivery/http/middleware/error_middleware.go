package middleware

import (
	"errors"
	"net/http"

	"go-application-form/internal/delivery/http/response"
	"go-application-form/pkg/apperror"
	"go-application-form/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				logger.Log.ErrorContext(c.Request.Context(), appErr.Message,
					"error", appErr.Err,
					"status", appErr.Code,
					"path", c.FullPath(),
					"request_id", c.GetString(RequestIDKey),
				)
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Details)
			return
		}

		// Never expose internal error details to clients
		logger.Log.ErrorContext(c.Request.Context(), "Internal Server Error",
			"error", err,
			"path", c.FullPath(),
			"request_id", c.GetString(RequestIDKey),
		)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
