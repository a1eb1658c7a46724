package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkkikiki/discount/internal/apperr"
)

const userIDKey = "user_id"

// RequestLogger attaches a request id and logs every request with its
// outcome, mirroring the correlation fields the service logs carry.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)

		c.Next()

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("peer", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Auth resolves the caller identity. The Authorization header value is
// trusted as the user id, simulating a decoded JWT subject; a real
// token would be verified by the auth service upstream.
func Auth(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		userID, err := strconv.ParseInt(token, 10, 64)
		if token == "" || err != nil {
			renderError(c, logger, apperr.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
