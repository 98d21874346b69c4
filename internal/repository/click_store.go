package repository

import (
	"context"
	"time"

	"clicktrail/internal/models"

	"gorm.io/gorm"
)

type ClickStore struct {
	db *gorm.DB
}

func NewClickStore(db *gorm.DB) *ClickStore {
	return &ClickStore{db: db}
}

// HasRecentClick reports whether a click with this fingerprint was recorded
// for the link after since.
func (s *ClickStore) HasRecentClick(ctx context.Context, linkID uint, fingerprint string, since time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Click{}).
		Where("link_id = ? AND fingerprint = ? AND timestamp > ?", linkID, fingerprint, since.UTC()).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordClick appends the click and bumps the link's denormalised counter.
func (s *ClickStore) RecordClick(ctx context.Context, click *models.Click) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(click).Error; err != nil {
			return err
		}
		return tx.Model(&models.Link{}).
			Where("id = ?", click.LinkID).
			UpdateColumn("clicks", gorm.Expr("clicks + ?", 1)).Error
	})
}

func (s *ClickStore) ListRecent(ctx context.Context, linkID uint, limit int) ([]models.Click, error) {
	var clicks []models.Click
	err := s.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("timestamp desc").
		Limit(limit).
		Find(&clicks).Error
	return clicks, err
}

// ResetStats drops every click and rollup of the link and zeroes its counter.
func (s *ClickStore) ResetStats(ctx context.Context, linkID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", linkID).Delete(&models.DailyRollup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", linkID).Delete(&models.Click{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Link{}).Where("id = ?", linkID).UpdateColumn("clicks", 0).Error
	})
}
