package bot

import (
	"strings"
	"testing"
	"time"

	"smart-planner/internal/model"
)

func TestParseDurationInput(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"45", 45, true},
		{" 90 ", 90, true},
		{"1h30m", 90, true},
		{"1.5h", 90, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"30s", 0, false},
		{"soon", 0, false},
	}
	for _, tc := range tests {
		got, err := parseDurationInput(tc.in)
		if tc.ok != (err == nil) || got != tc.want {
			t.Fatalf("%q: got %d, %v", tc.in, got, err)
		}
	}
}

func TestParsePriorityInput(t *testing.T) {
	if p, err := parsePriorityInput("✨ Suggested (low)", model.PriorityLow); err != nil || p != model.PriorityLow {
		t.Fatalf("suggestion button: %s %v", p, err)
	}
	if p, err := parsePriorityInput("skip", ""); err != nil || p != model.PriorityMedium {
		t.Fatalf("skip without suggestion: %s %v", p, err)
	}
	if p, err := parsePriorityInput("HIGH", model.PriorityLow); err != nil || p != model.PriorityHigh {
		t.Fatalf("explicit priority: %s %v", p, err)
	}
	if _, err := parsePriorityInput("urgent", model.PriorityLow); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}

func TestFormatTask(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -2)

	task := model.PlannedTask{ID: "12", Title: "pay <rent>", DurationMinutes: 90, Priority: model.PriorityHigh, Deadline: &past}
	got := formatTask(task, now)
	for _, want := range []string{iconOverdue, "#12", "Pay &lt;rent&gt;", "1h30m", "overdue"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %q", want, got)
		}
	}

	local := model.PlannedTask{ID: "local-abc", Title: "walk", DurationMinutes: 20, Sync: model.SyncFailed}
	local.SetStatus(model.StatusCompleted)
	got = formatTask(local, now)
	if !strings.Contains(got, "#new") || !strings.Contains(got, iconDone) || !strings.Contains(got, "Not synced") {
		t.Fatalf("unexpected local task line %q", got)
	}
}

func TestSmallHelpers(t *testing.T) {
	if got := shortTitle("  write the quarterly report", 10); got != "Write the…" {
		t.Fatalf("shortTitle = %q", got)
	}
	if got := progressBar(50, 4); got != "▰▰▱▱" {
		t.Fatalf("progressBar = %q", got)
	}
	if got := progressBar(140, 2); got != "▰▰" {
		t.Fatalf("progressBar clamp = %q", got)
	}
	for minutes, want := range map[int]string{0: "?", 45: "45m", 120: "2h", 75: "1h15m"} {
		if got := formatMinutes(minutes); got != want {
			t.Fatalf("formatMinutes(%d) = %q", minutes, got)
		}
	}
	if !isSkipInput(btnSkip) || !isConfirmInput("Yes") || !isCancelInput(btnCancel) || !isCancelDialogInput(btnCancelDialog) {
		t.Fatal("button labels not recognized")
	}
}
