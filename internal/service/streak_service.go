package service

import (
	"context"
	"time"

	"smart-planner/internal/model"
	"smart-planner/internal/repository"
)

// StreakService counts consecutive active days.
type StreakService struct {
	repo *repository.StreakRepository
	now  func() time.Time
}

func NewStreakService(repo *repository.StreakRepository) *StreakService {
	return &StreakService{repo: repo, now: time.Now}
}

// CheckIn records activity for today. A second check-in on the same day
// changes nothing, the next calendar day extends the streak and a longer gap
// starts over at one.
func (s *StreakService) CheckIn(ctx context.Context, userID uint) (*model.Streak, error) {
	streak, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := model.Day(s.now())
	if streak.LastActiveDate != nil {
		switch model.DaysBetween(*streak.LastActiveDate, today) {
		case 0:
			return streak, nil
		case 1:
			streak.CurrentStreak++
		default:
			streak.CurrentStreak = 1
		}
	} else {
		streak.CurrentStreak = 1
	}
	streak.TotalActiveDays++
	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}
	streak.LastActiveDate = &today

	if err := s.repo.Save(ctx, streak); err != nil {
		return nil, err
	}
	return streak, nil
}

// Get returns the streak with its status as of today.
func (s *StreakService) Get(ctx context.Context, userID uint) (*model.Streak, model.StreakStatus, error) {
	streak, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	return streak, streak.StatusOn(s.now()), nil
}
