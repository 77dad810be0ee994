package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"smart-planner/internal/ai"
	"smart-planner/internal/model"
	"smart-planner/internal/planner"
	"smart-planner/internal/repository"
)

// Scheduler produces a day plan from task briefs. *ai.Client implements it.
type Scheduler interface {
	Schedule(ctx context.Context, tasks []ai.TaskBrief, hours ai.WorkHours) (ai.ScheduleResult, error)
}

// ScheduleService asks the AI for today's plan and keeps the result.
type ScheduleService struct {
	tasks     *TaskService
	schedules *repository.ScheduleRepository
	prefs     *PreferencesService
	ai        Scheduler
	now       func() time.Time

	mu   sync.Mutex
	tips map[uint]dayTips
}

type dayTips struct {
	day  time.Time
	tips []string
}

func NewScheduleService(tasks *TaskService, schedules *repository.ScheduleRepository, prefs *PreferencesService, scheduler Scheduler) *ScheduleService {
	return &ScheduleService{
		tasks:     tasks,
		schedules: schedules,
		prefs:     prefs,
		ai:        scheduler,
		now:       time.Now,
		tips:      make(map[uint]dayTips),
	}
}

// Generate plans the user's pending tasks and stores the result for today.
// AI failures are returned as is; the caller decides how to fall back.
func (s *ScheduleService) Generate(ctx context.Context, userID uint) (planner.RemoteSchedule, error) {
	pending, err := s.tasks.Pending(ctx, userID)
	if err != nil {
		return planner.RemoteSchedule{}, fmt.Errorf("load pending tasks: %w", err)
	}
	if len(pending) == 0 {
		return planner.RemoteSchedule{}, nil
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return planner.RemoteSchedule{}, err
	}
	result, err := s.ai.Schedule(ctx, briefs(pending), ai.WorkHours{
		Start: prefs.WorkHoursStart,
		End:   prefs.WorkHoursEnd,
	})
	if err != nil {
		return planner.RemoteSchedule{}, fmt.Errorf("generate schedule: %w", err)
	}

	known := make(map[uint]bool, len(pending))
	for _, t := range pending {
		known[t.ID] = true
	}
	entries := make([]model.ScheduleEntry, 0, len(result.Items))
	for _, item := range result.Items {
		entry := model.ScheduleEntry{TaskTitle: item.Task, StartTime: item.Start, EndTime: item.End}
		if id, err := strconv.ParseUint(item.TaskID, 10, 64); err == nil && known[uint(id)] {
			taskID := uint(id)
			entry.TaskID = &taskID
		}
		entries = append(entries, entry)
	}

	today := model.Day(s.now())
	if err := s.schedules.ReplaceForDate(ctx, userID, today, entries); err != nil {
		return planner.RemoteSchedule{}, err
	}
	s.mu.Lock()
	s.tips[userID] = dayTips{day: today, tips: result.Review}
	s.mu.Unlock()

	return toRemote(entries, result.Review), nil
}

// Current returns the schedule stored for today.
func (s *ScheduleService) Current(ctx context.Context, userID uint) (planner.RemoteSchedule, error) {
	today := model.Day(s.now())
	entries, err := s.schedules.ListForDate(ctx, userID, today)
	if err != nil {
		return planner.RemoteSchedule{}, fmt.Errorf("load schedule: %w", err)
	}

	s.mu.Lock()
	cached := s.tips[userID]
	s.mu.Unlock()
	var tips []string
	if cached.day.Equal(today) {
		tips = cached.tips
	}
	return toRemote(entries, tips), nil
}

// Clear drops today's stored schedule.
func (s *ScheduleService) Clear(ctx context.Context, userID uint) error {
	s.mu.Lock()
	delete(s.tips, userID)
	s.mu.Unlock()
	return s.schedules.DeleteForDate(ctx, userID, s.now())
}

func briefs(tasks []model.Task) []ai.TaskBrief {
	out := make([]ai.TaskBrief, 0, len(tasks))
	for _, t := range tasks {
		minutes := t.DurationMinutes
		if minutes <= 0 {
			minutes = planner.DefaultDurationMinutes
		}
		b := ai.TaskBrief{
			ID:            strconv.FormatUint(uint64(t.ID), 10),
			Title:         t.Title,
			DurationHours: float64(minutes) / 60,
			Priority:      string(t.Priority),
			PreferredTime: t.PreferredTime,
		}
		if t.Deadline != nil {
			b.Deadline = t.Deadline.Format("2006-01-02")
		}
		out = append(out, b)
	}
	return out
}

func toRemote(entries []model.ScheduleEntry, tips []string) planner.RemoteSchedule {
	out := planner.RemoteSchedule{Items: make([]planner.RemoteItem, 0, len(entries)), Tips: tips}
	for _, e := range entries {
		item := planner.RemoteItem{Task: e.TaskTitle, Start: e.StartTime, End: e.EndTime}
		if e.TaskID != nil {
			item.TaskID = strconv.FormatUint(uint64(*e.TaskID), 10)
		}
		out.Items = append(out.Items, item)
	}
	return out
}
