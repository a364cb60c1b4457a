package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fraudshield/fraudshield-backend/logger"
	"github.com/fraudshield/fraudshield-backend/types"
)

type HealthService struct {
	pipeline    *PipelineService
	redisClient *redis.Client
	version     string
	log         *zap.SugaredLogger
}

// NewHealthService wires the health checks. redisClient may be nil when
// rate limiting is disabled; the component is then omitted from reports.
func NewHealthService(pipeline *PipelineService, redisClient *redis.Client, version string) *HealthService {
	return &HealthService{
		pipeline:    pipeline,
		redisClient: redisClient,
		version:     version,
		log:         logger.GetLogger(),
	}
}

func (h *HealthService) CheckHealth(ctx context.Context) types.HealthCheck {
	components := make(map[string]types.HealthComponent)
	overallStatus := types.HealthStatusUp

	// Check scoring pipeline
	pipelineStatus := h.checkPipeline()
	components["pipeline"] = pipelineStatus
	if pipelineStatus.Status == types.HealthStatusDown {
		overallStatus = types.HealthStatusDown
	}

	// Check Redis when rate limiting is enabled. Redis trouble degrades
	// the service but never takes it down: scoring works without it.
	if h.redisClient != nil {
		redisStatus := h.checkRedis(ctx)
		components["redis"] = redisStatus
		if redisStatus.Status == types.HealthStatusDown && overallStatus == types.HealthStatusUp {
			overallStatus = types.HealthStatusDegraded
		}
	}

	return types.HealthCheck{
		Status:     overallStatus,
		Components: components,
		Version:    h.version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// IsReady reports whether the service can accept scoring traffic.
func (h *HealthService) IsReady() bool {
	return h.pipeline.Available()
}

func (h *HealthService) checkPipeline() types.HealthComponent {
	status := h.pipeline.Status()
	if status.Status == types.PipelineUnavailable {
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: status.Reason,
		}
	}

	return types.HealthComponent{
		Status:  types.HealthStatusUp,
		Details: "model " + status.ModelVersion,
	}
}

func (h *HealthService) checkRedis(ctx context.Context) types.HealthComponent {
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		h.log.Errorw("Redis health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Redis connection failed",
		}
	}

	return types.HealthComponent{
		Status: types.HealthStatusUp,
	}
}
