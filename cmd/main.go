package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kkkkikiki/discount/internal/config"
	"github.com/kkkkikiki/discount/internal/database"
	"github.com/kkkkikiki/discount/internal/logging"
	"github.com/kkkkikiki/discount/internal/repository"
	"github.com/kkkkikiki/discount/internal/server"
	"github.com/kkkkikiki/discount/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration from environment variables
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(&cfg.App)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting discount service", zap.String("environment", cfg.App.Environment))

	// Initialize database connections
	db, err := database.NewDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connections", zap.Error(err))
		}
	}()

	// Wire repositories and services
	campaignRepo := repository.NewCampaignRepository(db.Postgres)
	discountRepo := repository.NewDiscountCodeRepository(db.Postgres)
	notifier := service.NewEventLogNotifier(discountRepo, logger)
	allocator := service.NewAllocator(campaignRepo, discountRepo, notifier, logger)
	generator := service.NewGenerator(campaignRepo, discountRepo, cfg.Generator, logger)

	router := server.NewRouter(cfg, db.Postgres, allocator, generator, logger)

	// Create server with configuration optimized for high concurrency
	srv := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second, // Keep connections alive longer
		MaxHeaderBytes: 1 << 20,           // 1MB
		// Use h2c so we can serve HTTP/2 without TLS
		Handler: h2c.NewHandler(router, &http2.Server{
			MaxConcurrentStreams: 1000, // Allow more concurrent streams
		}),
	}

	// Start server in goroutine
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Graceful shutdown: stop accepting requests, then let in-flight
	// generation jobs finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	if err := generator.Shutdown(shutdownCtx); err != nil {
		logger.Warn("generation jobs still running at shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}
