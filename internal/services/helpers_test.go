package services

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"clicktrail/internal/ingress"
	"clicktrail/internal/models"
	"clicktrail/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func createLink(t *testing.T, db *gorm.DB, link *models.Link) *models.Link {
	t.Helper()
	if link.Status == "" {
		link.Status = models.LinkStatusActive
	}
	require.NoError(t, db.Create(link).Error)
	return link
}

// trackingStack wires a ClickTracker to a real sqlite database and a geo
// lookup that always answers Berlin.
type trackingStack struct {
	db      *gorm.DB
	links   *repository.LinkStore
	clicks  *repository.ClickStore
	rollups *repository.RollupStore
	geo     *fakeGeoLookup
	tracker *ClickTracker
}

func newTrackingStack(t *testing.T) *trackingStack {
	t.Helper()
	db := setupTestDB(t)
	s := &trackingStack{
		db:      db,
		links:   repository.NewLinkStore(db),
		clicks:  repository.NewClickStore(db),
		rollups: repository.NewRollupStore(db),
		geo: &fakeGeoLookup{loc: Location{
			CountryCode: "DE",
			CountryName: "Germany",
			Region:      "Berlin",
			City:        "Berlin",
		}},
	}
	resolver := NewGeoResolver(s.geo, time.Second, testLogger())
	s.tracker = NewClickTracker(s.clicks, s.clicks, s.rollups, resolver, 24*time.Hour, testLogger())
	return s
}

func (s *trackingStack) clickCount(t *testing.T, linkID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(&models.Click{}).Where("link_id = ?", linkID).Count(&n).Error)
	return n
}

// recordingSink remembers submitted drafts instead of tracking them.
type recordingSink struct {
	mu     sync.Mutex
	drafts []ClickDraft
}

func (r *recordingSink) Submit(_ context.Context, draft ClickDraft) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts = append(r.drafts, draft)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

func clientFor(ip, ua string) ingress.ClientContext {
	return ingress.ClientContext{IP: ip, UserAgent: ua, Method: "GET"}
}
