package middleware

import (
	"clicktrail/internal/ingress"

	"github.com/gin-gonic/gin"
)

const clientContextKey = "client_context"

// ClientContext resolves the ingress view of the request once and stores it
// on the gin context for the limiter, the logger and the handlers.
func ClientContext(adapter *ingress.Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(clientContextKey, adapter.FromRequest(c.Request))
		c.Next()
	}
}

// Client returns the stored ClientContext. The IP is "unknown" when the
// ClientContext middleware did not run.
func Client(c *gin.Context) ingress.ClientContext {
	if v, ok := c.Get(clientContextKey); ok {
		if cc, ok := v.(ingress.ClientContext); ok {
			return cc
		}
	}
	return ingress.ClientContext{
		IP:             ingress.UnknownIP,
		UserAgent:      c.Request.UserAgent(),
		Referer:        c.Request.Referer(),
		AcceptLanguage: c.GetHeader("Accept-Language"),
		Method:         c.Request.Method,
	}
}
