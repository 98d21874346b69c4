package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestModels(t *testing.T) {
	t.Run("Table Names", func(t *testing.T) {
		assert.Equal(t, "links", Link{}.TableName())
		assert.Equal(t, "clicks", Click{}.TableName())
		assert.Equal(t, "daily_rollups", DailyRollup{}.TableName())
	})

	t.Run("Rollup Date Uses UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+9", 9*3600)
		ts := time.Date(2026, 3, 2, 1, 0, 0, 0, loc)
		assert.Equal(t, "2026-03-01", RollupDate(ts))
	})
}

func TestLink_IsExpiredAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	assert.False(t, (&Link{}).IsExpiredAt(now))
	assert.True(t, (&Link{ExpiresAt: &past}).IsExpiredAt(now))
	assert.False(t, (&Link{ExpiresAt: &future}).IsExpiredAt(now))
	assert.True(t, (&Link{ExpiresAt: &now}).IsExpiredAt(now), "boundary counts as expired")
	assert.True(t, (&Link{Status: LinkStatusExpired}).IsExpiredAt(now))
}

func TestLink_IsActive(t *testing.T) {
	assert.True(t, (&Link{}).IsActive())
	assert.True(t, (&Link{Status: LinkStatusActive}).IsActive())
	assert.False(t, (&Link{Status: LinkStatusInactive}).IsActive())
	assert.False(t, (&Link{Status: LinkStatusActive, Archived: true}).IsActive())
}

func TestLink_Mode(t *testing.T) {
	assert.Equal(t, RedirectDirect, (&Link{}).Mode())
	assert.Equal(t, RedirectSplash, (&Link{RedirectMode: RedirectSplash}).Mode())
	assert.True(t, RedirectMasked.Valid())
	assert.False(t, RedirectMode("iframe").Valid())
}
