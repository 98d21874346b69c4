package repository

import (
	"context"
	"errors"

	"clicktrail/internal/models"

	"gorm.io/gorm"
)

type LinkStore struct {
	db *gorm.DB
}

func NewLinkStore(db *gorm.DB) *LinkStore {
	return &LinkStore{db: db}
}

// FindByCode returns the link with exactly this short code, or nil when there
// is none. Matching is case-sensitive.
func (s *LinkStore) FindByCode(ctx context.Context, code string) (*models.Link, error) {
	var link models.Link
	err := s.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *LinkStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Link{}).Where("short_code = ?", code).Count(&count).Error
	return count > 0, err
}

func (s *LinkStore) Create(ctx context.Context, link *models.Link) error {
	return s.db.WithContext(ctx).Create(link).Error
}

func (s *LinkStore) Save(ctx context.Context, link *models.Link) error {
	return s.db.WithContext(ctx).Save(link).Error
}

// Delete removes the link together with its clicks and rollups.
func (s *LinkStore) Delete(ctx context.Context, linkID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", linkID).Delete(&models.DailyRollup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", linkID).Delete(&models.Click{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Link{}, linkID).Error
	})
}
