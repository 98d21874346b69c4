package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"clicktrail/internal/models"

	"gorm.io/gorm"
)

type AuditService struct {
	db           *gorm.DB
	logger       *slog.Logger
	auditChannel chan models.AuditLog
}

func NewAuditService(db *gorm.DB, logger *slog.Logger) *AuditService {
	return &AuditService{
		db:           db,
		logger:       logger,
		auditChannel: make(chan models.AuditLog, 100),
	}
}

func (s *AuditService) Start(ctx context.Context) {
	s.logger.Info("Audit worker starting")
	for {
		select {
		case entry := <-s.auditChannel:
			if err := s.db.Create(&entry).Error; err != nil {
				s.logger.Error("Failed to write audit log", "action", entry.Action, "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("Audit worker stopping")
			return
		}
	}
}

// LogAction queues an audit entry. A nil service discards it.
func (s *AuditService) LogAction(actor, action, entityID string, details interface{}, ip string) {
	if s == nil {
		return
	}
	detailBytes, _ := json.Marshal(details)

	entry := models.AuditLog{
		Actor:     actor,
		Action:    action,
		EntityID:  entityID,
		Details:   string(detailBytes),
		IPAddress: ip,
		Timestamp: time.Now().UTC(),
	}

	select {
	case s.auditChannel <- entry:
	default:
		s.logger.Warn("Audit channel full, dropping log", "action", action)
	}
}
