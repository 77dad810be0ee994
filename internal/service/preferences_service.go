package service

import (
	"context"
	"fmt"

	"smart-planner/internal/model"
	"smart-planner/internal/repository"
)

type PreferencesService struct {
	repo *repository.PreferencesRepository
}

func NewPreferencesService(repo *repository.PreferencesRepository) *PreferencesService {
	return &PreferencesService{repo: repo}
}

func (s *PreferencesService) Get(ctx context.Context, userID uint) (*model.Preferences, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// SetWorkHours stores the working day. Both ends must be HH:MM within one
// day and start must come first.
func (s *PreferencesService) SetWorkHours(ctx context.Context, userID uint, start, end string) (*model.Preferences, error) {
	from, err := model.ParseClock(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHours, err)
	}
	to, err := model.ParseClock(end)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHours, err)
	}
	if to >= 24*60 || from >= to {
		return nil, fmt.Errorf("%w: %s-%s", ErrInvalidHours, from, to)
	}

	prefs, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs.WorkHoursStart = from.String()
	prefs.WorkHoursEnd = to.String()
	if err := s.repo.Save(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// Anchor is where the local plan starts for the user.
func (s *PreferencesService) Anchor(ctx context.Context, userID uint, fallback model.Clock) model.Clock {
	prefs, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return fallback
	}
	return prefs.Anchor(fallback)
}
