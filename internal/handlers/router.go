package handlers

import (
	"net/http"

	"clicktrail/internal/middleware"
	"clicktrail/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (h *Handler) SetupRouter(rateLimiter *services.IPRateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ClientContext(h.adapter))
	r.Use(middleware.RequestLogger(h.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	resolve := r.Group("/")
	if rateLimiter != nil {
		resolve.Use(middleware.RateLimit(rateLimiter))
	}
	{
		resolve.GET("/resolve", h.ResolveQuery)
		resolve.GET("/resolve/:short_code", h.Resolve)
		resolve.POST("/resolve/:short_code", h.ResolveWithPassword)
		resolve.GET("/:short_code", h.Resolve)
	}

	// Without an admin key the management API does not exist
	if h.cfg.AdminAPIKey != "" && h.shortenerService != nil {
		admin := r.Group("/api/v1")
		admin.Use(middleware.APIKeyAuth(h.cfg.AdminAPIKey))
		{
			admin.POST("/links", h.CreateLink)
			admin.PATCH("/links/:short_code", h.UpdateLink)
			admin.DELETE("/links/:short_code", h.DeleteLink)
			admin.GET("/links/:short_code/stats", h.GetStats)
			admin.DELETE("/links/:short_code/stats", h.ResetStats)
			admin.GET("/links/:short_code/qr", h.GetQRCode)
		}
	}

	return r
}
