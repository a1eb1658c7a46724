package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kkkkikiki/discount/internal/apperr"
)

// errorResponse is the stable error payload shape:
// {"error_code": ..., "error_message": ...}
type errorResponse struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// renderError translates a typed failure into its stable status and
// machine-readable code. Anything untyped is logged with full context
// and reported as an opaque internal error.
func renderError(c *gin.Context, logger *zap.Logger, err error) {
	if appErr, ok := apperr.AsError(err); ok {
		logger.Warn("app_error",
			zap.String("error_code", appErr.Code),
			zap.String("error_message", appErr.Message),
			zap.String("path", c.Request.URL.Path))
		c.JSON(appErr.Status, errorResponse{
			ErrorCode:    appErr.Code,
			ErrorMessage: appErr.Message,
		})
		return
	}

	logger.Error("unhandled_error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{
		ErrorCode:    "INTERNAL_SERVER_ERROR",
		ErrorMessage: "internal server error",
	})
}
