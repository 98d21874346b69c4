package handlers

import (
	"errors"
	"io"
	"net/http"

	"clicktrail/internal/middleware"
	"clicktrail/internal/services"

	"github.com/gin-gonic/gin"
)

type passwordRequest struct {
	Password string `json:"password"`
}

// Resolve serves GET /resolve/:short_code and the bare /:short_code front door.
func (h *Handler) Resolve(c *gin.Context) {
	h.resolve(c, c.Param("short_code"), "")
}

// ResolveQuery serves GET /resolve?code=...
func (h *Handler) ResolveQuery(c *gin.Context) {
	h.resolve(c, c.Query("code"), "")
}

// ResolveWithPassword serves POST /resolve/:short_code. The body is optional;
// an empty one resolves like a GET.
func (h *Handler) ResolveWithPassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	h.resolve(c, c.Param("short_code"), req.Password)
}

func (h *Handler) resolve(c *gin.Context, code, password string) {
	res, err := h.resolver.Resolve(c.Request.Context(), services.ResolveRequest{
		Code:     code,
		Password: password,
		Client:   middleware.Client(c),
	})
	if err != nil {
		h.writeResolveError(c, code, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, res.Destination)
}

// writeResolveError is the single place resolver outcomes become HTTP
// responses. Destinations never appear in error bodies.
func (h *Handler) writeResolveError(c *gin.Context, code string, err error) {
	switch {
	case errors.Is(err, services.ErrMissingCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Short code is required"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
	case errors.Is(err, services.ErrLinkExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Link has expired"})
	case errors.Is(err, services.ErrLinkInactive):
		c.JSON(http.StatusGone, gin.H{"error": "Link is no longer active"})
	case errors.Is(err, services.ErrPasswordRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"requiresPassword": true})
	case errors.Is(err, services.ErrPasswordInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
	default:
		h.logger.Error("Failed to resolve link", "code", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
