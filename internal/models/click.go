package models

import (
	"time"
)

// Click is an append-only record of a resolved redirect.
type Click struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EventID        string    `gorm:"size:36;uniqueIndex" json:"event_id"`
	LinkID         uint      `gorm:"not null;index:idx_clicks_dedup,priority:1" json:"link_id"`
	Timestamp      time.Time `gorm:"not null;index;index:idx_clicks_dedup,priority:3" json:"timestamp"`
	IPAddress      string    `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent      string    `gorm:"type:text" json:"user_agent"`
	Referrer       string    `gorm:"size:512" json:"referrer"`
	Method         string    `gorm:"size:8" json:"method"`
	DeviceType     string    `gorm:"size:16" json:"device_type"`
	Browser        string    `gorm:"size:32" json:"browser"`
	BrowserVersion string    `gorm:"size:32" json:"browser_version"`
	OS             string    `gorm:"size:32" json:"os"`
	Language       string    `gorm:"size:35" json:"language"`
	IsBot          bool      `json:"is_bot"`
	CountryCode    string    `gorm:"size:2" json:"country_code"`
	Country        string    `gorm:"size:100" json:"country"`
	Region         string    `gorm:"size:100" json:"region"`
	City           string    `gorm:"size:100" json:"city"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	Fingerprint    string    `gorm:"size:64;not null;index:idx_clicks_dedup,priority:2" json:"fingerprint"`
	IsUnique       bool      `json:"is_unique"`
}

func (Click) TableName() string {
	return "clicks"
}
