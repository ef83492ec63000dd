package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-compensation-backend/config"
	_ "go-compensation-backend/docs" // Important for Swagger
	v1 "go-compensation-backend/internal/delivery/http/v1"
	"go-compensation-backend/internal/repository/postgres"
	"go-compensation-backend/internal/usecase"
	"go-compensation-backend/pkg/database"
	"go-compensation-backend/pkg/logger"
	"go-compensation-backend/pkg/redis"

	"github.com/go-playground/validator/v10"
)

// @title           Compensation Analysis Backend API
// @version         1.0
// @description     Offer percentile-ranking service using Clean Architecture.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init()
	logger.Log.Info("Starting compensation analysis backend", "port", cfg.Port)

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Setup Redis (rate limiting; app still works without it)
	if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
		logger.Log.Warn("Redis unavailable, rate limiting falls back to in-memory", "error", err)
	}
	defer redis.Close()

	// 5. Setup Repositories
	offerRepo := postgres.NewOfferRepository(dbPool)
	analysisRepo := postgres.NewAnalysisRepository(dbPool)

	// 6. Setup UseCases
	validate := validator.New()
	analysisUC := usecase.NewAnalysisUsecase(offerRepo, analysisRepo, validate)

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		AnalysisUC: analysisUC,
		Config:     cfg,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exited")
}
