package middleware

import (
	"net/http"

	"clicktrail/internal/services"

	"github.com/gin-gonic/gin"
)

// RateLimit applies the per-IP token bucket, keyed by the ingress-resolved IP
// rather than gin's ClientIP so proxies configured in the ingress profile are
// honoured.
func RateLimit(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(Client(c).IP) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
