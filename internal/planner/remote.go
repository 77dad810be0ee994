package planner

import (
	"context"
	"errors"

	"smart-planner/internal/model"
)

var (
	// ErrRemoteUnavailable wraps every failed backend or AI call.
	ErrRemoteUnavailable = errors.New("planner: remote unavailable")
	// ErrInvalidInput rejects a task draft before any state change.
	ErrInvalidInput = errors.New("planner: invalid input")
	// ErrMalformedSchedule marks a remote schedule that failed validation.
	ErrMalformedSchedule = errors.New("planner: malformed schedule payload")
)

// TaskRemote is the backend task API.
type TaskRemote interface {
	CreateTask(ctx context.Context, draft model.TaskDraft) (model.PlannedTask, error)
	UpdateTaskStatus(ctx context.Context, id string, status model.Status) (model.PlannedTask, error)
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context) ([]model.PlannedTask, error)
}

// RemoteItem is one schedule entry as the backend reports it. Fields are
// loosely filled by the AI and are validated before use.
type RemoteItem struct {
	TaskID string
	Task   string
	Start  string
	End    string
}

// RemoteSchedule is the payload of generate-schedule and get-current-schedule.
type RemoteSchedule struct {
	Items []RemoteItem
	Tips  []string
}

// ScheduleRemote is the backend schedule API.
type ScheduleRemote interface {
	GenerateSchedule(ctx context.Context) (RemoteSchedule, error)
	CurrentSchedule(ctx context.Context) (RemoteSchedule, error)
}

// StreakRemote is the backend streak API.
type StreakRemote interface {
	CheckIn(ctx context.Context) (model.Streak, error)
	Streak(ctx context.Context) (model.Streak, error)
}

// Remote is everything a session talks to.
type Remote interface {
	TaskRemote
	ScheduleRemote
	StreakRemote
}
