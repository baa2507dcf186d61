package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scanprice/internal/observability/logger"
	"go.uber.org/zap"
)

// AssistantRateLimit throttles generation requests per client address.
func (s *Server) AssistantRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.assistantLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		clientID := c.ClientIP()

		res, err := s.assistantLimiter.Allow(ctx, clientID)
		if err != nil {
			logger.FromContext(ctx).Warn("assistant rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			logger.FromContext(ctx).Warn("assistant rate limit exceeded",
				zap.String("client", clientID),
				zap.String("endpoint", c.FullPath()),
			)
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}
