package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/pkg/config"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// RateLimit applies a fixed-window counter per client IP and route. Limiting
// is skipped when disabled or when Redis is unavailable, so an outage never
// locks clients out.
func RateLimit(client *redis.Client, cfg config.RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if !cfg.Enabled || client == nil {
			c.Next()
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := fmt.Sprintf("ratelimit:%s:%s", c.ClientIP(), path)

		count, err := client.Incr(c.Request.Context(), key).Result()
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(c.Request.Context(), key, cfg.Window).Err(); err != nil {
				logger.Warn("rate limit expiry failed", zap.String("key", key), zap.Error(err))
			}
		}

		if count > int64(cfg.Requests) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(cfg.Window.Seconds())))
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
