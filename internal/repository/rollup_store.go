package repository

import (
	"context"
	"time"

	"clicktrail/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RollupStore struct {
	db *gorm.DB
}

func NewRollupStore(db *gorm.DB) *RollupStore {
	return &RollupStore{db: db}
}

// UpsertDailyRollup adds the deltas to the (link, date) row, creating it if needed.
func (s *RollupStore) UpsertDailyRollup(ctx context.Context, linkID uint, date string, totalDelta, uniqueDelta int64) error {
	row := models.DailyRollup{
		LinkID:       linkID,
		Date:         date,
		TotalClicks:  totalDelta,
		UniqueClicks: uniqueDelta,
		UpdatedAt:    time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "link_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_clicks":  gorm.Expr("daily_rollups.total_clicks + ?", totalDelta),
			"unique_clicks": gorm.Expr("daily_rollups.unique_clicks + ?", uniqueDelta),
			"updated_at":    row.UpdatedAt,
		}),
	}).Create(&row).Error
}

// ListSince returns the link's rollups from the given date onwards, oldest first.
func (s *RollupStore) ListSince(ctx context.Context, linkID uint, fromDate string) ([]models.DailyRollup, error) {
	var rows []models.DailyRollup
	err := s.db.WithContext(ctx).
		Where("link_id = ? AND date >= ?", linkID, fromDate).
		Order("date asc").
		Find(&rows).Error
	return rows, err
}

type rollupKey struct {
	linkID uint
	date   string
}

// Rebuild recomputes every rollup dated on or after since from the click log.
func (s *RollupStore) Rebuild(ctx context.Context, since time.Time) (int, error) {
	fromDate := models.RollupDate(since)
	start, _ := time.Parse(models.DateLayout, fromDate)

	counts := make(map[rollupKey]*models.DailyRollup)
	var batch []models.Click
	err := s.db.WithContext(ctx).
		Select("id", "link_id", "timestamp", "is_unique").
		Where("timestamp >= ?", start).
		FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
			for _, c := range batch {
				key := rollupKey{linkID: c.LinkID, date: models.RollupDate(c.Timestamp)}
				row, ok := counts[key]
				if !ok {
					row = &models.DailyRollup{LinkID: key.linkID, Date: key.date}
					counts[key] = row
				}
				row.TotalClicks++
				if c.IsUnique {
					row.UniqueClicks++
				}
			}
			return nil
		}).Error
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date >= ?", fromDate).Delete(&models.DailyRollup{}).Error; err != nil {
			return err
		}
		rows := make([]models.DailyRollup, 0, len(counts))
		for _, row := range counts {
			row.UpdatedAt = now
			rows = append(rows, *row)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
	if err != nil {
		return 0, err
	}
	return len(counts), nil
}
