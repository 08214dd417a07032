package middleware

import (
	"math"
	"strconv"

	"reviewhub_backend/internal/logger"
	"reviewhub_backend/internal/ratelimit"
	"reviewhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware limits requests per client IP within scope.
func RateLimitMiddleware(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if !d.Allowed {
			retry := int(math.Ceil(d.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			logger.CtxWarn(c.Request.Context(), "rate limited", "scope", scope, "ip", c.ClientIP())
			apperrors.HandleError(c, apperrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}
