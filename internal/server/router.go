// Package server wires the HTTP surface: routing, auth, request
// logging and error translation around the discount services.
package server

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kkkkikiki/discount/internal/config"
	"github.com/kkkkikiki/discount/internal/service"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg *config.Config, db *sqlx.DB, allocator *service.Allocator, generator *service.Generator, logger *zap.Logger) *gin.Engine {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		RequestLogger(logger),
		gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
			logger.Error("panic recovered",
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", recovered))
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
				ErrorCode:    "INTERNAL_SERVER_ERROR",
				ErrorMessage: "internal server error",
			})
		}),
	)

	handler := NewDiscountHandler(allocator, generator, logger)

	discounts := engine.Group("/discounts", Auth(logger))
	discounts.POST("/:campaignId", handler.Fetch)
	discounts.GET("/:campaignId", handler.Get)
	discounts.POST("/:campaignId/manage/generate-codes", handler.GenerateCodes)

	engine.GET("/health", func(c *gin.Context) {
		hostname, _ := os.Hostname()
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"service":  "discount-system",
			"hostname": hostname,
		})
	})

	engine.GET("/health/db", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "error",
				"message": "postgres unavailable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "postgres": "connected"})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return engine
}
