package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/pkg/redis"
	"github.com/CentZek/newesthr-sub000/pkg/response"
)

// AttemptCounter counts attempts in a sliding window; *redis.Client
// implements it
type AttemptCounter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

var _ AttemptCounter = (*redis.Client)(nil)

// LoginRateLimit caps login attempts per client ip. Lets everything through
// when counter is nil or failing.
func LoginRateLimit(counter AttemptCounter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		allowed, err := counter.CheckRateLimit(c.Request.Context(), loginAttemptKey(ip), limit, window)
		if err != nil {
			logger.Warn("login attempt counter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			logger.Warn("login attempts throttled", zap.String("ip", ip), zap.Int("limit", limit))
			response.Error(c, http.StatusTooManyRequests, 10004,
				fmt.Sprintf("too many login attempts, wait %s and try again", window))
			c.Abort()
			return
		}

		c.Next()
	}
}

func loginAttemptKey(ip string) string {
	return "attend:login:attempts:" + ip
}
