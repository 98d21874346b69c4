package models

import (
	"time"
)

type LinkStatus string

const (
	LinkStatusActive   LinkStatus = "active"
	LinkStatusInactive LinkStatus = "inactive"
	LinkStatusExpired  LinkStatus = "expired"
)

// RedirectMode selects how a resolved link is presented. Only RedirectDirect
// changes behavior today; masked and splash are stored but redirect directly.
type RedirectMode string

const (
	RedirectDirect RedirectMode = "direct"
	RedirectMasked RedirectMode = "masked"
	RedirectSplash RedirectMode = "splash"
)

func (m RedirectMode) Valid() bool {
	switch m {
	case RedirectDirect, RedirectMasked, RedirectSplash:
		return true
	}
	return false
}

type Link struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	ShortCode        string       `gorm:"unique;not null;size:64;index" json:"short_code"` // Case-sensitive
	DestinationURL   string       `gorm:"not null;type:text" json:"destination_url"`
	Status           LinkStatus   `gorm:"size:16;default:'active';index" json:"status"`
	ExpiresAt        *time.Time   `json:"expires_at,omitempty"`
	PasswordHash     string       `gorm:"size:255" json:"-"`
	Domain           string       `gorm:"size:255" json:"domain,omitempty"`
	RedirectMode     RedirectMode `gorm:"size:16;default:'direct'" json:"redirect_mode"`
	AnalyticsEnabled bool         `gorm:"not null" json:"analytics_enabled"`
	Archived         bool         `gorm:"not null;index" json:"archived"`
	ClicksCount      int64        `gorm:"column:clicks;default:0" json:"clicks_count"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`

	Clicks []Click `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Link) TableName() string {
	return "links"
}

// IsActive reports whether the link may be resolved at all. Archived links
// are treated as inactive.
func (l *Link) IsActive() bool {
	if l.Archived {
		return false
	}
	return l.Status == "" || l.Status == LinkStatusActive
}

// IsExpiredAt reports whether the expiry instant has been reached. An expiry
// equal to now counts as expired.
func (l *Link) IsExpiredAt(now time.Time) bool {
	if l.Status == LinkStatusExpired {
		return true
	}
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

func (l *Link) HasPassword() bool {
	return l.PasswordHash != ""
}

func (l *Link) Mode() RedirectMode {
	if l.RedirectMode == "" {
		return RedirectDirect
	}
	return l.RedirectMode
}
