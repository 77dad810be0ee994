package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"smart-planner/internal/model"
)

type StreakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

func (r *StreakRepository) GetOrCreate(ctx context.Context, userID uint) (*model.Streak, error) {
	var streak model.Streak
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ?", userID).First(&streak).Error
	switch {
	case err == nil:
		return &streak, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		streak = model.Streak{UserID: userID}
		if err := db.Create(&streak).Error; err != nil {
			return nil, fmt.Errorf("create streak: %w", err)
		}
		return &streak, nil
	default:
		return nil, fmt.Errorf("find streak: %w", err)
	}
}

func (r *StreakRepository) Save(ctx context.Context, streak *model.Streak) error {
	if err := r.db.WithContext(ctx).Save(streak).Error; err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}
