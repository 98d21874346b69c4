package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"ip", Client(c).IP,
		}
		switch {
		case status >= 500:
			logger.Error("Request failed", attrs...)
		case status >= 400:
			logger.Warn("Request rejected", attrs...)
		default:
			logger.Info("Request", attrs...)
		}
	}
}
