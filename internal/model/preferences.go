package model

import "time"

// Preferences holds onboarding answers that shape the day plan.
type Preferences struct {
	ID               uint `gorm:"primaryKey"`
	UserID           uint `gorm:"uniqueIndex"`
	WorkStyle        string
	ProductivityGoal string
	WorkHoursStart   string `gorm:"type:varchar(5);default:09:00"`
	WorkHoursEnd     string `gorm:"type:varchar(5);default:18:00"`
	BreakPreference  string
	BiggestChallenge string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const (
	DefaultWorkHoursStart = "09:00"
	DefaultWorkHoursEnd   = "18:00"
)

// Anchor returns the work start as a clock, or fallback when unset or malformed.
func (p Preferences) Anchor(fallback Clock) Clock {
	if p.WorkHoursStart == "" {
		return fallback
	}
	c, err := ParseClock(p.WorkHoursStart)
	if err != nil || c >= 24*60 {
		return fallback
	}
	return c
}

// Hours is the length of the working day in whole hours, 8 when the stored
// range is unusable.
func (p Preferences) Hours() int {
	start, err := ParseClock(p.WorkHoursStart)
	if err != nil {
		return 8
	}
	end, err := ParseClock(p.WorkHoursEnd)
	if err != nil || end <= start {
		return 8
	}
	if h := int(end-start) / 60; h > 0 {
		return h
	}
	return 1
}
