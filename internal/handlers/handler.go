package handlers

import (
	"log/slog"

	"clicktrail/internal/config"
	"clicktrail/internal/ingress"
	"clicktrail/internal/services"
)

type Handler struct {
	cfg              config.Config
	logger           *slog.Logger
	adapter          *ingress.Adapter
	resolver         *services.RedirectResolver
	shortenerService *services.ShortenerService
	qrService        *services.QRService
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	adapter *ingress.Adapter,
	resolver *services.RedirectResolver,
	shortenerService *services.ShortenerService,
	qrService *services.QRService,
) *Handler {
	return &Handler{
		cfg:              cfg,
		logger:           logger,
		adapter:          adapter,
		resolver:         resolver,
		shortenerService: shortenerService,
		qrService:        qrService,
	}
}
