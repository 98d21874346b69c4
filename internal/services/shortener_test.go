package services

import (
	"context"
	"testing"
	"time"

	"clicktrail/internal/models"
	"clicktrail/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShortener(t *testing.T) (*ShortenerService, *trackingStack) {
	t.Helper()
	stack := newTrackingStack(t)
	cache := NewLinkCache(stack.links, nil, time.Minute, testLogger())
	svc := NewShortenerService(stack.links, stack.clicks, stack.rollups, cache, nil, utils.SchemeSHA256)
	return svc, stack
}

func TestShortenerService_CreateLink(t *testing.T) {
	ctx := context.Background()
	svc, stack := newShortener(t)

	t.Run("Generated Code", func(t *testing.T) {
		link, err := svc.CreateLink(ctx, ShortenDTO{DestinationURL: "https://example.com"})
		require.NoError(t, err)
		assert.Len(t, link.ShortCode, defaultCodeLength)
		assert.Equal(t, models.RedirectDirect, link.RedirectMode)
		assert.True(t, link.AnalyticsEnabled)
		assert.Nil(t, link.ExpiresAt)

		stored, err := stack.links.FindByCode(ctx, link.ShortCode)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "https://example.com", stored.DestinationURL)
	})

	t.Run("Custom Code And Options", func(t *testing.T) {
		hours := 2
		analytics := false
		link, err := svc.CreateLink(ctx, ShortenDTO{
			DestinationURL:   "https://example.com/docs",
			CustomCode:       "Docs",
			ExpiryHours:      &hours,
			Password:         "letmein",
			RedirectMode:     models.RedirectSplash,
			AnalyticsEnabled: &analytics,
		})
		require.NoError(t, err)
		assert.Equal(t, "Docs", link.ShortCode)
		assert.False(t, link.AnalyticsEnabled)
		require.NotNil(t, link.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(2*time.Hour), *link.ExpiresAt, time.Minute)
		assert.True(t, utils.VerifyLinkPassword("letmein", link.PasswordHash))
	})

	t.Run("Custom Code Taken", func(t *testing.T) {
		_, err := svc.CreateLink(ctx, ShortenDTO{DestinationURL: "https://example.com", CustomCode: "Docs"})
		assert.ErrorIs(t, err, ErrCodeTaken)

		// Case-sensitive codes do not collide
		_, err = svc.CreateLink(ctx, ShortenDTO{DestinationURL: "https://example.com", CustomCode: "docs"})
		assert.NoError(t, err)
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := svc.CreateLink(ctx, ShortenDTO{DestinationURL: "ftp://example.com"})
		assert.ErrorIs(t, err, ErrInvalidURL)

		_, err = svc.CreateLink(ctx, ShortenDTO{DestinationURL: "not a url"})
		assert.ErrorIs(t, err, ErrInvalidURL)

		_, err = svc.CreateLink(ctx, ShortenDTO{DestinationURL: "https://example.com", CustomCode: "bad code"})
		assert.ErrorIs(t, err, ErrInvalidCode)

		_, err = svc.CreateLink(ctx, ShortenDTO{DestinationURL: "https://example.com", RedirectMode: "frame"})
		assert.ErrorIs(t, err, ErrInvalidMode)
	})

	t.Run("Generator Collision Retries", func(t *testing.T) {
		codes := []string{"Docs", "Docs", "fresh1"}
		svc.codeGenerator = func(int) string {
			c := codes[0]
			codes = codes[1:]
			return c
		}
		defer func() { svc.codeGenerator = utils.GenerateShortCode }()

		link, err := svc.CreateLink(ctx, ShortenDTO{DestinationURL: "https://example.com"})
		require.NoError(t, err)
		assert.Equal(t, "fresh1", link.ShortCode)
	})

	t.Run("Generator Exhausted", func(t *testing.T) {
		svc.codeGenerator = func(int) string { return "Docs" }
		defer func() { svc.codeGenerator = utils.GenerateShortCode }()

		_, err := svc.CreateLink(ctx, ShortenDTO{DestinationURL: "https://example.com"})
		assert.ErrorIs(t, err, errCodeExhausted)
	})
}

func TestShortenerService_UpdateLink(t *testing.T) {
	ctx := context.Background()
	svc, _ := newShortener(t)

	link, err := svc.CreateLink(ctx, ShortenDTO{DestinationURL: "https://example.com", CustomCode: "upd", Password: "secret"})
	require.NoError(t, err)

	dest := "https://example.org"
	none := ""
	inactive := models.LinkStatusInactive
	updated, err := svc.UpdateLink(ctx, link.ShortCode, UpdateDTO{
		DestinationURL: &dest,
		Password:       &none,
		Status:         &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, dest, updated.DestinationURL)
	assert.False(t, updated.HasPassword())
	assert.False(t, updated.IsActive())

	expiry := time.Now().Add(time.Hour)
	updated, err = svc.UpdateLink(ctx, link.ShortCode, UpdateDTO{ExpiresAt: &expiry})
	require.NoError(t, err)
	require.NotNil(t, updated.ExpiresAt)

	updated, err = svc.UpdateLink(ctx, link.ShortCode, UpdateDTO{ClearExpiry: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ExpiresAt)

	bad := "mailto:someone@example.com"
	_, err = svc.UpdateLink(ctx, link.ShortCode, UpdateDTO{DestinationURL: &bad})
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = svc.UpdateLink(ctx, "missing", UpdateDTO{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShortenerService_StatsLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, stack := newShortener(t)

	link, err := svc.CreateLink(ctx, ShortenDTO{DestinationURL: "https://example.com", CustomCode: "stats"})
	require.NoError(t, err)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		_, err := stack.tracker.Track(ctx, ClickDraft{
			LinkID:    link.ID,
			ClickedAt: now,
			Client:    clientFor("203.0.113.10", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0"),
		})
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx, "stats", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalClicks)
	assert.Equal(t, int64(1), stats.UniqueClicks)
	assert.Len(t, stats.RecentClicks, 3)
	assert.Equal(t, int64(3), stats.Link.ClicksCount)

	require.NoError(t, svc.ResetStats(ctx, "stats", "127.0.0.1"))
	stats, err = svc.Stats(ctx, "stats", 7)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalClicks)
	assert.Empty(t, stats.RecentClicks)

	require.NoError(t, svc.DeleteLink(ctx, "stats", "127.0.0.1"))
	_, err = svc.Stats(ctx, "stats", 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteLink(ctx, "stats", ""), ErrNotFound)

}
