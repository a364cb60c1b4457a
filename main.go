package main

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/fraudshield/fraudshield-backend/config"
	"github.com/fraudshield/fraudshield-backend/handlers"
	"github.com/fraudshield/fraudshield-backend/internal/artifact"
	"github.com/fraudshield/fraudshield-backend/logger"
	"github.com/fraudshield/fraudshield-backend/router"
	"github.com/fraudshield/fraudshield-backend/services"
)

func main() {
	// Initialize logger
	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load model and encoder artifacts. Failure leaves the service up in a
	// degraded state: health stays reachable and scoring returns 503.
	pipelineService := loadPipeline(cfg)

	// Initialize Redis when configured; rate limiting is skipped otherwise
	var redisClient *redis.Client
	var rateLimiter services.RateLimiterInterface
	if cfg.Redis.Enabled() {
		redisOptions := &redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		if cfg.IsProduction() {
			redisOptions.TLSConfig = &tls.Config{
				ServerName: cfg.Redis.Address,
				MinVersion: tls.VersionTLS12,
			}
		}
		redisClient = redis.NewClient(redisOptions)
		rateLimiter = services.NewRateLimitService(redisClient)
	}

	healthService := services.NewHealthService(pipelineService, redisClient, cfg.Server.Version)

	r := router.SetupRouter(router.Dependencies{
		Config:             cfg,
		TransactionHandler: handlers.NewTransactionHandler(pipelineService),
		HealthHandler:      handlers.NewHealthHandler(healthService),
		RateLimiter:        rateLimiter,
	})

	log.Infof("Starting server on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadPipeline fetches the artifacts from disk or S3 and builds the
// scoring pipeline. It never exits the process on artifact trouble.
func loadPipeline(cfg *config.Config) *services.PipelineService {
	log := logger.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var source artifact.Source
	modelLocation := cfg.Artifacts.ModelPath
	encoderLocation := cfg.Artifacts.EncoderPath

	if cfg.Artifacts.UseS3() {
		s3Source, err := artifact.NewS3Source(ctx, cfg.Artifacts)
		if err != nil {
			log.Errorw("Failed to initialize S3 artifact source, scoring disabled", "error", err)
			return services.NewPipelineService(nil, "artifact source unavailable: "+err.Error())
		}
		source = s3Source
		modelLocation = cfg.Artifacts.ModelKey
		encoderLocation = cfg.Artifacts.EncoderKey
	} else {
		source = artifact.NewFileSource()
	}

	store, err := artifact.Load(ctx, source, modelLocation, encoderLocation)
	if err != nil {
		log.Errorw("Failed to load artifacts, scoring disabled until restart", "error", err)
		return services.NewPipelineService(nil, err.Error())
	}

	return services.NewPipelineService(store, "")
}
