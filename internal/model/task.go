package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTask     = errors.New("model: invalid task")
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrInvalidStatus   = errors.New("model: invalid task status")
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank orders priorities for scheduling: high=3, medium=2, low=1, anything else 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusCompleted
}

// SyncState tracks whether a local record has been confirmed by the backend.
type SyncState string

const (
	SyncSynced  SyncState = "synced"
	SyncPending SyncState = "pending"
	SyncFailed  SyncState = "failed"
)

// Task is the backend row for a planned task.
type Task struct {
	ID              uint `gorm:"primaryKey"`
	UserID          uint `gorm:"index"`
	Title           string
	DurationMinutes int
	Priority        Priority `gorm:"type:varchar(16);index"`
	Deadline        *time.Time
	PreferredTime   string `gorm:"type:varchar(5)"`
	Status          Status `gorm:"type:varchar(16);default:pending;index"`
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Planned converts a backend row into a synced in-memory record.
func (t Task) Planned() PlannedTask {
	p := PlannedTask{
		ID:              strconv.FormatUint(uint64(t.ID), 10),
		Title:           t.Title,
		DurationMinutes: t.DurationMinutes,
		Priority:        t.Priority,
		Deadline:        t.Deadline,
		PreferredTime:   t.PreferredTime,
		Sync:            SyncSynced,
	}
	status := t.Status
	if !status.IsValid() {
		status = StatusPending
	}
	p.SetStatus(status)
	return p
}

// PlannedTask is the planner's view of a task. Completed mirrors Status and
// is only ever written through SetStatus.
type PlannedTask struct {
	ID              string
	Title           string
	DurationMinutes int
	Priority        Priority
	Deadline        *time.Time
	PreferredTime   string
	Status          Status
	Completed       bool
	Sync            SyncState
}

func (t *PlannedTask) SetStatus(s Status) {
	t.Status = s
	t.Completed = s == StatusCompleted
}

// TaskDraft is user input for a new task.
type TaskDraft struct {
	Title           string
	DurationMinutes int
	Priority        Priority
	Deadline        *time.Time
	PreferredTime   string
}

// Normalize trims the title and defaults an empty priority to medium.
func (d TaskDraft) Normalize() TaskDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.PreferredTime = strings.TrimSpace(d.PreferredTime)
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	return d
}

func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if d.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidTask, d.DurationMinutes)
	}
	if d.Priority != "" && !d.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, d.Priority)
	}
	if d.PreferredTime != "" {
		c, err := ParseClock(d.PreferredTime)
		if err != nil || c >= 24*60 {
			return fmt.Errorf("%w: preferred time %q is not HH:MM", ErrInvalidTask, d.PreferredTime)
		}
	}
	return nil
}

// Planned builds a record from the draft with the given id and sync state.
func (d TaskDraft) Planned(id string, sync SyncState) PlannedTask {
	p := PlannedTask{
		ID:              id,
		Title:           d.Title,
		DurationMinutes: d.DurationMinutes,
		Priority:        d.Priority,
		Deadline:        d.Deadline,
		PreferredTime:   d.PreferredTime,
		Sync:            sync,
	}
	p.SetStatus(StatusPending)
	return p
}
