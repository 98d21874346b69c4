package handlers

import (
	"errors"
	"net/http"
	"time"

	"clicktrail/internal/middleware"
	"clicktrail/internal/models"
	"clicktrail/internal/services"

	"github.com/gin-gonic/gin"
)

type CreateLinkRequest struct {
	DestinationURL   string              `json:"destination_url" binding:"required,url"`
	CustomCode       string              `json:"custom_code,omitempty"`
	ExpiryHours      *int                `json:"expiry_hours,omitempty"`
	Password         string              `json:"password,omitempty"`
	Domain           string              `json:"domain,omitempty"`
	RedirectMode     models.RedirectMode `json:"redirect_mode,omitempty"`
	AnalyticsEnabled *bool               `json:"analytics_enabled,omitempty"`
}

type UpdateLinkRequest struct {
	DestinationURL *string              `json:"destination_url,omitempty"`
	Password       *string              `json:"password,omitempty"`
	ExpiresAt      *time.Time           `json:"expires_at,omitempty"`
	ClearExpiry    bool                 `json:"clear_expiry,omitempty"`
	Status         *models.LinkStatus   `json:"status,omitempty"`
	RedirectMode   *models.RedirectMode `json:"redirect_mode,omitempty"`
	Archived       *bool                `json:"archived,omitempty"`
}

func (h *Handler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.shortenerService.CreateLink(c.Request.Context(), services.ShortenDTO{
		DestinationURL:   req.DestinationURL,
		CustomCode:       req.CustomCode,
		ExpiryHours:      req.ExpiryHours,
		Password:         req.Password,
		Domain:           req.Domain,
		RedirectMode:     req.RedirectMode,
		AnalyticsEnabled: req.AnalyticsEnabled,
		IPAddress:        middleware.Client(c).IP,
	})
	if err != nil {
		h.writeManagementError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"link":      link,
		"short_url": h.qrService.ShortURL(link),
	})
}

func (h *Handler) UpdateLink(c *gin.Context) {
	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != nil {
		switch *req.Status {
		case models.LinkStatusActive, models.LinkStatusInactive, models.LinkStatusExpired:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
	}

	link, err := h.shortenerService.UpdateLink(c.Request.Context(), c.Param("short_code"), services.UpdateDTO{
		DestinationURL: req.DestinationURL,
		Password:       req.Password,
		ExpiresAt:      req.ExpiresAt,
		ClearExpiry:    req.ClearExpiry,
		Status:         req.Status,
		RedirectMode:   req.RedirectMode,
		Archived:       req.Archived,
		IPAddress:      middleware.Client(c).IP,
	})
	if err != nil {
		h.writeManagementError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

func (h *Handler) DeleteLink(c *gin.Context) {
	if err := h.shortenerService.DeleteLink(c.Request.Context(), c.Param("short_code"), middleware.Client(c).IP); err != nil {
		h.writeManagementError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeManagementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
	case errors.Is(err, services.ErrCodeTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidURL),
		errors.Is(err, services.ErrInvalidMode),
		errors.Is(err, services.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Management request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
