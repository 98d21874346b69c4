package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"clicktrail/internal/ingress"
	"clicktrail/internal/metrics"
	"clicktrail/internal/models"

	"github.com/google/uuid"
)

// ClickDraft is everything phase one knows about a redirect that should be
// tracked. Enrichment happens in ClickTracker.Track.
type ClickDraft struct {
	LinkID    uint
	Client    ingress.ClientContext
	ClickedAt time.Time
}

type ClickHistory interface {
	HasRecentClick(ctx context.Context, linkID uint, fingerprint string, since time.Time) (bool, error)
}

type ClickWriter interface {
	RecordClick(ctx context.Context, click *models.Click) error
}

type RollupWriter interface {
	UpsertDailyRollup(ctx context.Context, linkID uint, date string, totalDelta, uniqueDelta int64) error
}

// ClickTracker classifies, deduplicates, geolocates and persists one click.
type ClickTracker struct {
	history     ClickHistory
	writer      ClickWriter
	rollups     RollupWriter
	geo         *GeoResolver
	dedupWindow time.Duration
	logger      *slog.Logger
}

func NewClickTracker(history ClickHistory, writer ClickWriter, rollups RollupWriter, geo *GeoResolver, dedupWindow time.Duration, logger *slog.Logger) *ClickTracker {
	if dedupWindow <= 0 {
		dedupWindow = 24 * time.Hour
	}
	return &ClickTracker{
		history:     history,
		writer:      writer,
		rollups:     rollups,
		geo:         geo,
		dedupWindow: dedupWindow,
		logger:      logger,
	}
}

func (t *ClickTracker) Track(ctx context.Context, draft ClickDraft) (*models.Click, error) {
	client := draft.Client
	info := Classify(client.UserAgent)
	fingerprint := Fingerprint(client.IP, client.UserAgent, draft.LinkID)

	// A failed dedup query counts the click as unique rather than dropping it.
	seen, err := t.history.HasRecentClick(ctx, draft.LinkID, fingerprint, draft.ClickedAt.Add(-t.dedupWindow))
	if err != nil {
		t.logger.Warn("Dedup lookup failed", "link_id", draft.LinkID, "error", err)
		seen = false
	}

	loc := t.geo.Resolve(ctx, client.IP, client.GeoHint)

	click := &models.Click{
		EventID:        uuid.NewString(),
		LinkID:         draft.LinkID,
		Timestamp:      draft.ClickedAt.UTC(),
		IPAddress:      truncate(client.IP, 45),
		UserAgent:      client.UserAgent,
		Referrer:       truncate(client.Referer, 512),
		Method:         client.Method,
		DeviceType:     info.Device,
		Browser:        info.Browser,
		BrowserVersion: truncate(info.BrowserVersion, 32),
		OS:             info.OS,
		Language:       PrimaryLanguage(client.AcceptLanguage),
		IsBot:          info.IsBot,
		CountryCode:    loc.CountryCode,
		Country:        loc.CountryName,
		Region:         loc.Region,
		City:           loc.City,
		Latitude:       loc.Latitude,
		Longitude:      loc.Longitude,
		Fingerprint:    fingerprint,
		IsUnique:       !seen,
	}

	if err := t.writer.RecordClick(ctx, click); err != nil {
		metrics.ClicksRecorded.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("record click: %w", err)
	}
	metrics.ClicksRecorded.WithLabelValues("ok").Inc()

	if t.rollups != nil {
		var unique int64
		if click.IsUnique {
			unique = 1
		}
		if err := t.rollups.UpsertDailyRollup(ctx, click.LinkID, models.RollupDate(click.Timestamp), 1, unique); err != nil {
			// Rollups are rebuilt from the click log, so this is not fatal
			t.logger.Warn("Failed to update daily rollup", "link_id", click.LinkID, "error", err)
		}
	}

	return click, nil
}

// truncate caps s at n bytes without splitting a rune. Invalid sequences are
// dropped so postgres accepts the row.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
