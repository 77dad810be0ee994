package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smart-planner/internal/model"
)

// HistoryRepository keeps one plan snapshot per user and day.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Upsert stores the snapshot, replacing an earlier one for the same day.
func (r *HistoryRepository) Upsert(ctx context.Context, h *model.PlanHistory) error {
	h.Date = model.Day(h.Date)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_tasks", "completed_tasks", "schedule_data", "wellness_tips", "updated_at",
		}),
	}).Create(h).Error
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// ListRecent returns up to limit snapshots, newest first.
func (r *HistoryRepository) ListRecent(ctx context.Context, userID uint, limit int) ([]model.PlanHistory, error) {
	if limit <= 0 {
		limit = 7
	}
	var items []model.PlanHistory
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("date DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
