package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"smart-planner/internal/ai"
	"smart-planner/internal/model"
)

type fakeCoach struct {
	subtasks []ai.Subtask
	tip      string
	goals    []ai.Goal
	reply    string
	err      error

	calls    int
	lastSnap ai.TaskSnapshot
}

func (f *fakeCoach) Breakdown(context.Context, string) ([]ai.Subtask, error) {
	f.calls++
	return f.subtasks, f.err
}

func (f *fakeCoach) Suggest(_ context.Context, snap ai.TaskSnapshot) (string, error) {
	f.calls++
	f.lastSnap = snap
	return f.tip, f.err
}

func (f *fakeCoach) Goals(context.Context, string, int) ([]ai.Goal, error) {
	f.calls++
	return f.goals, f.err
}

func (f *fakeCoach) Chat(context.Context, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (e *testEnv) coach(c Coach) *CoachService {
	svc := NewCoachService(c, e.tasks, ai.NewCache(time.Minute))
	svc.now = func() time.Time { return e.now }
	return svc
}

func TestHeuristicBreakdown(t *testing.T) {
	tests := []struct {
		title string
		first string
		total int
	}{
		{"Write quarterly report", "Research and gather information", 120},
		{"Implement login", "Plan and design solution", 120},
		{"Read chapter 4", "Preview material and set goals", 80},
		{"Prepare client meeting", "Define objectives and agenda", 80},
		{"Clean garage", "Plan approach for: Clean garage", 80},
	}
	for _, tc := range tests {
		subtasks := HeuristicBreakdown(tc.title)
		total := 0
		for _, st := range subtasks {
			total += st.DurationMinutes
		}
		if subtasks[0].Title != tc.first || total != tc.total {
			t.Fatalf("%q: first=%q total=%d", tc.title, subtasks[0].Title, total)
		}
	}
}

func TestCoachBreakdownUsesAIThenCache(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	fake := &fakeCoach{subtasks: []ai.Subtask{{Title: "Sketch", DurationMinutes: 20}, {Title: "Ink", DurationMinutes: 40}}}
	svc := env.coach(fake)

	first, err := svc.Breakdown(ctx, "Draw poster")
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if !first.AIGenerated || first.TotalMinutes != 60 || len(first.Subtasks) != 2 {
		t.Fatalf("unexpected breakdown %+v", first)
	}
	if _, err := svc.Breakdown(ctx, " draw POSTER "); err != nil || fake.calls != 1 {
		t.Fatalf("expected cached answer, calls=%d err=%v", fake.calls, err)
	}
	if _, err := svc.Breakdown(ctx, "  "); !errors.Is(err, model.ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask, got %v", err)
	}
}

func TestCoachBreakdownFallsBack(t *testing.T) {
	env := newEnv(t)
	svc := env.coach(&fakeCoach{err: ai.ErrMalformedPayload})

	got, err := svc.Breakdown(context.Background(), "Write essay")
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if got.AIGenerated || got.TotalMinutes != 120 || got.Subtasks[2].Title != "Write first draft" {
		t.Fatalf("expected writing template, got %+v", got)
	}
}

func TestHeuristicSuggestion(t *testing.T) {
	tests := []struct {
		name  string
		stats TaskStats
		hour  int
		want  string
	}{
		{"overdue wins", TaskStats{Total: 3, Pending: 3, Overdue: 1, PendingHigh: 2}, 9, "1 overdue task!"},
		{"high priority", TaskStats{Total: 3, Pending: 3, PendingHigh: 2}, 9, "2 high-priority tasks"},
		{"all done", TaskStats{Total: 2, Completed: 2}, 9, "All tasks completed"},
		{"big backlog", TaskStats{Total: 7, Pending: 7}, 9, "7 tasks pending"},
		{"morning", TaskStats{Total: 1, Pending: 1}, 9, "Morning"},
		{"afternoon", TaskStats{Total: 1, Pending: 1}, 14, "Afternoon"},
		{"evening", TaskStats{}, 20, "Evening"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HeuristicSuggestion(&tc.stats, tc.hour); !strings.Contains(got, tc.want) {
				t.Fatalf("got %q, want it to contain %q", got, tc.want)
			}
		})
	}
}

func TestCoachSuggestBuildsSnapshot(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	yesterday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	env.tasks.CreateTask(ctx, 1, model.TaskDraft{Title: "Late", DurationMinutes: 30, Priority: model.PriorityHigh, Deadline: &yesterday})
	env.tasks.CreateTask(ctx, 1, model.TaskDraft{Title: "Fine", DurationMinutes: 30})

	fake := &fakeCoach{tip: "Finish the late one."}
	got, err := env.coach(fake).Suggest(ctx, 1, " tired ")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	want := ai.TaskSnapshot{Pending: 2, HighPriority: 1, Overdue: 1, Clock: "10:00 AM", Context: "tired"}
	if !got.AIGenerated || got.Text != fake.tip || fake.lastSnap != want {
		t.Fatalf("suggestion %+v snapshot %+v", got, fake.lastSnap)
	}

	offline, err := env.coach(nil).Suggest(ctx, 1, "")
	if err != nil || offline.AIGenerated || !strings.Contains(offline.Text, "overdue") {
		t.Fatalf("fallback suggestion %+v err=%v", offline, err)
	}
}

func TestCoachGoals(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)

	aiGoals := []ai.Goal{{Title: "Ship weekly", Description: "cadence"}}
	fake := &fakeCoach{goals: aiGoals}
	svc := env.coach(fake)
	if goals, fromAI := svc.Goals(ctx, "Freelancer", 6); !fromAI || goals[0].Title != "Ship weekly" {
		t.Fatalf("AI goals not used: %+v", goals)
	}
	svc.Goals(ctx, "freelancer", 6)
	if fake.calls != 1 {
		t.Fatalf("expected cached goals, calls=%d", fake.calls)
	}

	fake.err = ai.ErrRateLimited
	if goals, fromAI := svc.Goals(ctx, "student", 0); fromAI || goals[0].Title != "Maintain study schedule" {
		t.Fatalf("student presets expected: %+v", goals)
	}
	if goals, _ := svc.Goals(ctx, "astronaut", 8); goals[0].Title != "Prioritize high-impact tasks" {
		t.Fatalf("unknown role should get professional presets: %+v", goals)
	}
}

func TestCoachChat(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)

	if reply, fromAI := env.coach(&fakeCoach{reply: "Breathe."}).Chat(ctx, "help"); !fromAI || reply != "Breathe." {
		t.Fatalf("AI reply not used: %q", reply)
	}
	tests := map[string]string{
		"How do I stay FOCUSED?":       "90-minute focus blocks",
		"I feel overwhelmed":           "smallest task",
		"how to prioritize my day":     "Eisenhower",
		"what is the meaning of life?": "Some quick productivity tips",
	}
	offline := env.coach(&fakeCoach{err: ai.ErrDisabled})
	for msg, want := range tests {
		if reply, fromAI := offline.Chat(ctx, msg); fromAI || !strings.Contains(reply, want) {
			t.Fatalf("%q: got %q", msg, reply)
		}
	}
}

func TestTaskServiceStats(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	a, _ := env.tasks.CreateTask(ctx, 1, model.TaskDraft{Title: "Due today", DurationMinutes: 30, Priority: model.PriorityHigh, Deadline: &today})
	env.tasks.CreateTask(ctx, 1, model.TaskDraft{Title: "Overdue", DurationMinutes: 60, Priority: model.PriorityLow, Deadline: &yesterday})
	env.tasks.CreateTask(ctx, 1, model.TaskDraft{Title: "Someday", DurationMinutes: 90})
	env.tasks.CreateTask(ctx, 2, model.TaskDraft{Title: "Not mine", DurationMinutes: 10})
	env.tasks.UpdateStatus(ctx, 1, a.ID, model.StatusCompleted)

	stats, err := env.tasks.Stats(ctx, 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 1 || stats.Pending != 2 || stats.CompletionPercentage != 33 {
		t.Fatalf("overview: %+v", stats)
	}
	if stats.ByPriority[model.PriorityHigh] != 1 || stats.ByPriority[model.PriorityMedium] != 1 || stats.ByPriority[model.PriorityLow] != 1 {
		t.Fatalf("priority breakdown: %v", stats.ByPriority)
	}
	if stats.DueToday != 1 || stats.DueTodayCompleted != 1 || stats.Overdue != 1 || stats.PendingHigh != 0 {
		t.Fatalf("deadlines: %+v", stats)
	}
	if stats.AverageMinutes != 60 || stats.ProductivityScore != 33 {
		t.Fatalf("average=%d score=%d", stats.AverageMinutes, stats.ProductivityScore)
	}

	empty, _ := env.tasks.Stats(ctx, 9)
	if empty.Total != 0 || empty.ProductivityScore != 0 || empty.AverageMinutes != 0 {
		t.Fatalf("empty stats: %+v", empty)
	}
}
