package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"smart-planner/internal/model"
)

// TaskFilter narrows List. Zero fields match everything.
type TaskFilter struct {
	Status   model.Status
	Priority model.Priority
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// List returns the user's tasks, nearest deadline first, then by priority.
func (r *TaskRepository) List(ctx context.Context, userID uint, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}

	var tasks []model.Task
	if err := q.
		Order("deadline NULLS LAST").
		Order("CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END").
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateStatus sets the status and keeps CompletedAt in step with it.
func (r *TaskRepository) UpdateStatus(ctx context.Context, task *model.Task, status model.Status, at time.Time) error {
	task.Status = status
	if status == model.StatusCompleted {
		task.CompletedAt = &at
	} else {
		task.CompletedAt = nil
	}
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}

// Delete removes a task for the given user. A missing row reports
// gorm.ErrRecordNotFound.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
