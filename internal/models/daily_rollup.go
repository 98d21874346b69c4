package models

import (
	"time"
)

// DateLayout is the calendar-date key used by DailyRollup, always in UTC.
const DateLayout = "2006-01-02"

// DailyRollup is a rebuildable aggregate of Click rows per link and UTC day.
type DailyRollup struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	LinkID       uint      `gorm:"not null;uniqueIndex:idx_rollup_link_date,priority:1" json:"link_id"`
	Date         string    `gorm:"size:10;not null;uniqueIndex:idx_rollup_link_date,priority:2" json:"date"`
	TotalClicks  int64     `gorm:"not null;default:0" json:"total_clicks"`
	UniqueClicks int64     `gorm:"not null;default:0" json:"unique_clicks"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (DailyRollup) TableName() string {
	return "daily_rollups"
}

func RollupDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
