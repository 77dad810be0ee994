package model

import "time"

// ScheduleBlock is one slot of a day timeline. TaskID is empty when the
// block could not be tied to a known task; Index is its position.
type ScheduleBlock struct {
	TaskID          string
	Index           int
	Title           string
	Start           Clock
	End             Clock
	DurationMinutes int
}

// ScheduleEntry stores one row of the generated schedule for a day.
type ScheduleEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index:idx_schedule_user_date"`
	Date      time.Time `gorm:"index:idx_schedule_user_date"`
	Position  int
	TaskID    *uint
	TaskTitle string
	StartTime string `gorm:"type:varchar(5)"`
	EndTime   string `gorm:"type:varchar(5)"`
	CreatedAt time.Time
}

// PlanHistory is a snapshot of a finished day plan.
type PlanHistory struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         uint      `gorm:"index:idx_history_user_date,unique"`
	Date           time.Time `gorm:"index:idx_history_user_date,unique"`
	TotalTasks     int
	CompletedTasks int
	ScheduleData   string
	WellnessTips   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
