package v1

import (
	"net/http"
	"time"

	"go-compensation-backend/config"
	"go-compensation-backend/internal/delivery/http/middleware"
	"go-compensation-backend/internal/delivery/http/response"
	"go-compensation-backend/internal/domain"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	AnalysisUC domain.AnalysisUsecase
	Config     *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	window := time.Duration(deps.Config.RateLimitWindowSeconds) * time.Second

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig(deps.Config.RateLimitGlobalThreshold, window)))

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "System operational", nil)
	})

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Config))
	{
		analysisLimiter := middleware.RateLimitMiddleware(
			middleware.AnalysisRateLimitConfig(deps.Config.RateLimitAnalysisThreshold, window))
		NewAnalysisHandler(protected, deps.AnalysisUC, analysisLimiter)
	}

	return r
}
