package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fraudshield/fraudshield-backend/config"
	"github.com/fraudshield/fraudshield-backend/services"
)

// ScoreRateLimiter creates a middleware that rate limits the scoring
// endpoint per client IP using a fixed window tracked in Redis.
func ScoreRateLimiter(rateLimiter services.RateLimiterInterface, cfg config.RateLimitConfig) gin.HandlerFunc {
	window := time.Duration(cfg.WindowSeconds) * time.Second

	return func(c *gin.Context) {
		key := "score:ip:" + c.ClientIP()

		allowed, retryAfter, err := rateLimiter.CheckLimit(
			c.Request.Context(),
			key,
			cfg.RequestsPerMinute,
			window,
		)
		if err != nil {
			// Redis trouble must not block scoring traffic.
			c.Next()
			return
		}

		if !allowed {
			setRateLimitHeaders(c, cfg.RequestsPerMinute, 0, retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": int(retryAfter.Seconds()),
				"message":     "Too many scoring requests. Please try again later.",
			})
			return
		}

		setRateLimitHeaders(c, cfg.RequestsPerMinute, cfg.RequestsPerMinute-1, 0)
		c.Next()
	}
}

// setRateLimitHeaders sets the standard rate limit headers
func setRateLimitHeaders(c *gin.Context, limit int, remaining int, retryAfter time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

	if retryAfter > 0 {
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(retryAfter).Unix(), 10))
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	}
}
