package service

import (
	"context"
	"strconv"

	"smart-planner/internal/model"
	"smart-planner/internal/planner"
	"smart-planner/internal/repository"
)

var _ planner.Remote = (*Backend)(nil)

// Backend binds the services to one user so a planner session can use
// them as its remote. Task ids cross the boundary as decimal strings.
type Backend struct {
	userID    uint
	tasks     *TaskService
	schedules *ScheduleService
	streaks   *StreakService
}

func NewBackend(userID uint, tasks *TaskService, schedules *ScheduleService, streaks *StreakService) *Backend {
	return &Backend{userID: userID, tasks: tasks, schedules: schedules, streaks: streaks}
}

func (b *Backend) CreateTask(ctx context.Context, draft model.TaskDraft) (model.PlannedTask, error) {
	task, err := b.tasks.CreateTask(ctx, b.userID, draft)
	if err != nil {
		return model.PlannedTask{}, err
	}
	return task.Planned(), nil
}

func (b *Backend) UpdateTaskStatus(ctx context.Context, id string, status model.Status) (model.PlannedTask, error) {
	taskID, err := parseTaskID(id)
	if err != nil {
		return model.PlannedTask{}, err
	}
	task, err := b.tasks.UpdateStatus(ctx, b.userID, taskID, status)
	if err != nil {
		return model.PlannedTask{}, err
	}
	return task.Planned(), nil
}

func (b *Backend) DeleteTask(ctx context.Context, id string) error {
	taskID, err := parseTaskID(id)
	if err != nil {
		return err
	}
	return b.tasks.DeleteTask(ctx, b.userID, taskID)
}

func (b *Backend) ListTasks(ctx context.Context) ([]model.PlannedTask, error) {
	tasks, err := b.tasks.List(ctx, b.userID, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]model.PlannedTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Planned())
	}
	return out, nil
}

func (b *Backend) GenerateSchedule(ctx context.Context) (planner.RemoteSchedule, error) {
	return b.schedules.Generate(ctx, b.userID)
}

func (b *Backend) CurrentSchedule(ctx context.Context) (planner.RemoteSchedule, error) {
	return b.schedules.Current(ctx, b.userID)
}

func (b *Backend) CheckIn(ctx context.Context) (model.Streak, error) {
	streak, err := b.streaks.CheckIn(ctx, b.userID)
	if err != nil {
		return model.Streak{}, err
	}
	return *streak, nil
}

func (b *Backend) Streak(ctx context.Context) (model.Streak, error) {
	streak, _, err := b.streaks.Get(ctx, b.userID)
	if err != nil {
		return model.Streak{}, err
	}
	return *streak, nil
}

// parseTaskID maps a planner id to a row id. Anything that is not a
// positive decimal never existed on this side.
func parseTaskID(id string) (uint, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, ErrNotFound
	}
	return uint(n), nil
}
