package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/fraudshield/fraudshield-backend/config"
)

type stubRateLimiter struct {
	allowed    bool
	retryAfter time.Duration
	err        error
	lastKey    string
}

func (s *stubRateLimiter) CheckLimit(_ context.Context, key string, _ int, _ time.Duration) (bool, time.Duration, error) {
	s.lastKey = key
	return s.allowed, s.retryAfter, s.err
}

func rateLimitedRouter(limiter *stubRateLimiter) *gin.Engine {
	cfg := config.RateLimitConfig{RequestsPerMinute: 60, WindowSeconds: 60}
	r := gin.New()
	r.POST("/score", ScoreRateLimiter(limiter, cfg), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestScoreRateLimiterAllows(t *testing.T) {
	limiter := &stubRateLimiter{allowed: true}
	r := rateLimitedRouter(limiter)

	w := performRequest(r, http.MethodPost, "/score")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "59", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, limiter.lastKey, "score:ip:")
}

func TestScoreRateLimiterBlocks(t *testing.T) {
	limiter := &stubRateLimiter{allowed: false, retryAfter: 30 * time.Second}
	r := rateLimitedRouter(limiter)

	w := performRequest(r, http.MethodPost, "/score")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}

func TestScoreRateLimiterFailsOpen(t *testing.T) {
	limiter := &stubRateLimiter{err: assert.AnError}
	r := rateLimitedRouter(limiter)

	w := performRequest(r, http.MethodPost, "/score")
	assert.Equal(t, http.StatusOK, w.Code)
}
