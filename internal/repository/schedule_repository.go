package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"smart-planner/internal/model"
)

// ScheduleRepository keeps the generated schedule rows per user and day.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ReplaceForDate swaps the schedule of one day in a single transaction.
func (r *ScheduleRepository) ReplaceForDate(ctx context.Context, userID uint, date time.Time, entries []model.ScheduleEntry) error {
	day := model.Day(date)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND date = ?", userID, day).Delete(&model.ScheduleEntry{}).Error; err != nil {
			return fmt.Errorf("clear schedule: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		for i := range entries {
			entries[i].ID = 0
			entries[i].UserID = userID
			entries[i].Date = day
			entries[i].Position = i
		}
		if err := tx.Create(&entries).Error; err != nil {
			return fmt.Errorf("store schedule: %w", err)
		}
		return nil
	})
}

func (r *ScheduleRepository) ListForDate(ctx context.Context, userID uint, date time.Time) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, model.Day(date)).
		Order("start_time ASC, position ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ScheduleRepository) DeleteForDate(ctx context.Context, userID uint, date time.Time) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, model.Day(date)).
		Delete(&model.ScheduleEntry{}).Error; err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
