package handlers

import (
	"context"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"

	"clicktrail/internal/config"
	"clicktrail/internal/ingress"
	"clicktrail/internal/models"
	"clicktrail/internal/repository"
	"clicktrail/internal/services"
	"clicktrail/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testAdminKey = "test-admin-key"

type staticGeo struct{}

func (staticGeo) Lookup(context.Context, net.IP) (services.Location, error) {
	return services.Location{CountryCode: "NL", CountryName: "Netherlands", Region: "North Holland", City: "Amsterdam"}, nil
}

func setupTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg := config.Config{
		AdminAPIKey:    testAdminKey,
		PublicBaseURL:  "https://sho.rt",
		PasswordScheme: utils.SchemeSHA256,
	}

	links := repository.NewLinkStore(db)
	clicks := repository.NewClickStore(db)
	rollups := repository.NewRollupStore(db)

	geo := services.NewGeoResolver(staticGeo{}, time.Second, logger)
	tracker := services.NewClickTracker(clicks, clicks, rollups, geo, 24*time.Hour, logger)
	cache := services.NewLinkCache(links, nil, time.Minute, logger)
	resolver := services.NewRedirectResolver(cache, services.NewSyncSink(tracker, logger), services.ResolverConfig{}, logger)
	shortener := services.NewShortenerService(links, clicks, rollups, cache, nil, cfg.PasswordScheme)
	qr := services.NewQRService(cfg.PublicBaseURL)

	adapter, err := ingress.ForProfile("default", "")
	require.NoError(t, err)

	return NewHandler(cfg, logger, adapter, resolver, shortener, qr), db
}

func setupTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return h.SetupRouter(nil)
}

func seedLink(t *testing.T, db *gorm.DB, link models.Link) models.Link {
	t.Helper()
	if link.Status == "" {
		link.Status = models.LinkStatusActive
	}
	require.NoError(t, db.Create(&link).Error)
	return link
}

func clickCount(t *testing.T, db *gorm.DB, linkID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Click{}).Where("link_id = ?", linkID).Count(&n).Error)
	return n
}
