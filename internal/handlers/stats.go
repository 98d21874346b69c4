package handlers

import (
	"net/http"
	"strconv"

	"clicktrail/internal/middleware"
	"clicktrail/internal/services"

	"github.com/gin-gonic/gin"
)

const maxStatsDays = 365

func (h *Handler) GetStats(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxStatsDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
			return
		}
		days = n
	}

	stats, err := h.shortenerService.Stats(c.Request.Context(), c.Param("short_code"), days)
	if err != nil {
		h.writeManagementError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ResetStats(c *gin.Context) {
	if err := h.shortenerService.ResetStats(c.Request.Context(), c.Param("short_code"), middleware.Client(c).IP); err != nil {
		h.writeManagementError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetQRCode renders the public short URL, so scans are resolved and tracked
// like any other visit.
func (h *Handler) GetQRCode(c *gin.Context) {
	link, err := h.shortenerService.GetLink(c.Request.Context(), c.Param("short_code"))
	if err != nil {
		h.writeManagementError(c, err)
		return
	}

	size, _ := strconv.Atoi(c.Query("size"))
	opts := services.QROptions{Size: size, FgColor: c.Query("fg"), BgColor: c.Query("bg")}

	if c.Query("format") == "svg" {
		svg, err := h.qrService.SVG(link, opts)
		if err != nil {
			h.writeManagementError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
		return
	}

	png, err := h.qrService.PNG(link, opts)
	if err != nil {
		h.writeManagementError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
