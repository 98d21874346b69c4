package models

import (
	"time"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Actor     string    `gorm:"size:64" json:"actor"`           // "admin" for API key callers
	Action    string    `gorm:"size:50;not null" json:"action"` // e.g., "CREATE_LINK", "RESET_STATS"
	EntityID  string    `gorm:"size:64" json:"entity_id"`       // Short code of the affected link
	Details   string    `gorm:"type:text" json:"details"`       // JSON
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	Timestamp time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{&Link{}, &Click{}, &DailyRollup{}, &AuditLog{}}
}
