package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fraudshield/fraudshield-backend/config"
	"github.com/fraudshield/fraudshield-backend/handlers"
	"github.com/fraudshield/fraudshield-backend/middleware"
	"github.com/fraudshield/fraudshield-backend/services"
)

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config             *config.Config
	TransactionHandler *handlers.TransactionHandler
	HealthHandler      *handlers.HealthHandler
	// RateLimiter is optional; rate limiting is skipped when nil.
	RateLimiter services.RateLimiterInterface
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.Default()

	// Global Middleware
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.SecurityHeadersMiddleware(deps.Config))
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))

	// Health and Metrics Routes
	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Versioned API Group (v1)
	v1 := r.Group("/v1")
	{
		scoreRoute := v1.Group("/transactions")
		if deps.RateLimiter != nil {
			scoreRoute.Use(middleware.ScoreRateLimiter(deps.RateLimiter, deps.Config.RateLimit))
		}
		scoreRoute.POST("/score", deps.TransactionHandler.ScoreTransaction)

		v1.GET("/pipeline/status", deps.TransactionHandler.PipelineStatus)
	}

	return r
}
