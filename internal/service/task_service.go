package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"smart-planner/internal/model"
	"smart-planner/internal/planner"
	"smart-planner/internal/repository"
)

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
	now      func() time.Time
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, now: time.Now}
}

func (s *TaskService) CreateTask(ctx context.Context, userID uint, draft model.TaskDraft) (*model.Task, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:          userID,
		Title:           draft.Title,
		DurationMinutes: draft.DurationMinutes,
		Priority:        draft.Priority,
		Deadline:        draft.Deadline,
		PreferredTime:   draft.PreferredTime,
		Status:          model.StatusPending,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, userID uint, filter repository.TaskFilter) ([]model.Task, error) {
	return s.taskRepo.List(ctx, userID, filter)
}

// Pending returns the tasks still to be scheduled.
func (s *TaskService) Pending(ctx context.Context, userID uint) ([]model.Task, error) {
	return s.taskRepo.List(ctx, userID, repository.TaskFilter{Status: model.StatusPending})
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, notFound(err)
	}
	return task, nil
}

// UpdateStatus sets the task status; completing stamps CompletedAt.
func (s *TaskService) UpdateStatus(ctx context.Context, userID, taskID uint, status model.Status) (*model.Task, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.UpdateStatus(ctx, task, status, s.now()); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint) error {
	return notFound(s.taskRepo.Delete(ctx, userID, taskID))
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// TaskStats is the detailed analytics view of a user's tasks.
type TaskStats struct {
	Total                int
	Completed            int
	Pending              int
	CompletionPercentage int
	ByPriority           map[model.Priority]int
	PendingHigh          int
	DueToday             int
	DueTodayCompleted    int
	Overdue              int
	AverageMinutes       int
	ProductivityScore    int
}

// Stats computes completion, priority and deadline figures over all of the
// user's tasks.
func (s *TaskService) Stats(ctx context.Context, userID uint) (*TaskStats, error) {
	tasks, err := s.taskRepo.List(ctx, userID, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}
	today := model.Day(s.now())
	stats := &TaskStats{Total: len(tasks), ByPriority: make(map[model.Priority]int, 3)}
	minutes := 0
	for _, t := range tasks {
		done := t.Status == model.StatusCompleted
		if done {
			stats.Completed++
		} else {
			stats.Pending++
			if t.Priority == model.PriorityHigh {
				stats.PendingHigh++
			}
		}
		stats.ByPriority[t.Priority]++
		minutes += t.DurationMinutes
		if t.Deadline == nil {
			continue
		}
		switch days := model.DaysBetween(today, *t.Deadline); {
		case days == 0:
			stats.DueToday++
			if done {
				stats.DueTodayCompleted++
			}
		case days < 0 && !done:
			stats.Overdue++
		}
	}
	stats.CompletionPercentage = planner.CompletionPercentage(stats.Completed, stats.Total)
	if stats.Total > 0 {
		stats.AverageMinutes = minutes / stats.Total
	}
	stats.ProductivityScore = stats.CompletionPercentage
	if stats.Overdue == 0 && stats.Total > 0 {
		stats.ProductivityScore += 10
	}
	if stats.ProductivityScore > 100 {
		stats.ProductivityScore = 100
	}
	return stats, nil
}
