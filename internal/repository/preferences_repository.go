package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"smart-planner/internal/model"
)

// PreferencesRepository stores per-user planning preferences.
type PreferencesRepository struct {
	db *gorm.DB
}

func NewPreferencesRepository(db *gorm.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// GetOrCreate returns the user's preferences, creating defaults on first use.
func (r *PreferencesRepository) GetOrCreate(ctx context.Context, userID uint) (*model.Preferences, error) {
	var prefs model.Preferences
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ?", userID).First(&prefs).Error
	switch {
	case err == nil:
		return &prefs, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		prefs = model.Preferences{
			UserID:         userID,
			WorkHoursStart: model.DefaultWorkHoursStart,
			WorkHoursEnd:   model.DefaultWorkHoursEnd,
		}
		if err := db.Create(&prefs).Error; err != nil {
			return nil, fmt.Errorf("create preferences: %w", err)
		}
		return &prefs, nil
	default:
		return nil, fmt.Errorf("find preferences: %w", err)
	}
}

func (r *PreferencesRepository) Save(ctx context.Context, prefs *model.Preferences) error {
	if err := r.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
