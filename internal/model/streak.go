package model

import "time"

type StreakStatus string

const (
	StreakActive StreakStatus = "active"
	StreakAtRisk StreakStatus = "at_risk"
	StreakBroken StreakStatus = "broken"
)

// Streak counts consecutive days with at least one completed task.
type Streak struct {
	ID              uint `gorm:"primaryKey"`
	UserID          uint `gorm:"uniqueIndex"`
	CurrentStreak   int
	LongestStreak   int
	TotalActiveDays int
	LastActiveDate  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatusOn reports the streak state as seen on the given day.
func (s Streak) StatusOn(day time.Time) StreakStatus {
	if s.LastActiveDate == nil {
		return StreakBroken
	}
	switch DaysBetween(*s.LastActiveDate, day) {
	case 0:
		return StreakActive
	case 1:
		return StreakAtRisk
	default:
		return StreakBroken
	}
}

// DaysBetween counts calendar days from a to b in b's location.
func DaysBetween(a, b time.Time) int {
	a = a.In(b.Location())
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
