package model

import (
	"errors"
	"testing"
)

func TestPriorityRank(t *testing.T) {
	cases := map[Priority]int{
		PriorityHigh:      3,
		PriorityMedium:    2,
		PriorityLow:       1,
		Priority("bogus"): 0,
	}
	for p, want := range cases {
		if got := p.Rank(); got != want {
			t.Fatalf("rank %q: got %d want %d", p, got, want)
		}
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(" High ")
	if err != nil || p != PriorityHigh {
		t.Fatalf("expected high, got %q err=%v", p, err)
	}
	if _, err := ParsePriority("urgent"); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestTaskDraftValidate(t *testing.T) {
	tests := []struct {
		name  string
		draft TaskDraft
		ok    bool
	}{
		{"valid", TaskDraft{Title: "Write report", DurationMinutes: 30}, true},
		{"empty title", TaskDraft{Title: "  ", DurationMinutes: 30}, false},
		{"zero duration", TaskDraft{Title: "Run", DurationMinutes: 0}, false},
		{"negative duration", TaskDraft{Title: "Run", DurationMinutes: -5}, false},
		{"bad priority", TaskDraft{Title: "Run", DurationMinutes: 5, Priority: "urgent"}, false},
		{"preferred time", TaskDraft{Title: "Gym", DurationMinutes: 60, PreferredTime: "17:30"}, true},
		{"bad preferred time", TaskDraft{Title: "Gym", DurationMinutes: 60, PreferredTime: "25:00"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.draft.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid draft, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestSetStatusKeepsCompletedInSync(t *testing.T) {
	task := TaskDraft{Title: "Read", DurationMinutes: 20}.Normalize().Planned("local-1", SyncPending)
	if task.Completed || task.Status != StatusPending {
		t.Fatalf("new task should be pending: %+v", task)
	}
	if task.Priority != PriorityMedium {
		t.Fatalf("expected default medium priority, got %q", task.Priority)
	}
	task.SetStatus(StatusCompleted)
	if !task.Completed {
		t.Fatal("completed flag not set")
	}
	task.SetStatus(StatusPending)
	if task.Completed {
		t.Fatal("completed flag not cleared")
	}
}

func TestBackendRowPlanned(t *testing.T) {
	row := Task{ID: 42, Title: "Ship", DurationMinutes: 90, Priority: PriorityHigh, Status: StatusCompleted}
	p := row.Planned()
	if p.ID != "42" || !p.Completed || p.Sync != SyncSynced {
		t.Fatalf("unexpected conversion: %+v", p)
	}
}
