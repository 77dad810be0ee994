package planner

import (
	"reflect"
	"testing"

	"smart-planner/internal/model"
)

func task(id, title string, p model.Priority, minutes int) model.PlannedTask {
	t := model.PlannedTask{ID: id, Title: title, Priority: p, DurationMinutes: minutes, Sync: model.SyncSynced}
	t.SetStatus(model.StatusPending)
	return t
}

func blockIDs(blocks []model.ScheduleBlock) []string {
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.TaskID)
	}
	return ids
}

func TestLocalScheduleStablePriorityOrder(t *testing.T) {
	tasks := []model.PlannedTask{
		task("A", "A", model.PriorityHigh, 30),
		task("B", "B", model.PriorityMedium, 30),
		task("C", "C", model.PriorityHigh, 30),
	}
	got := blockIDs(LocalSchedule(tasks, DefaultAnchor))
	if want := []string{"A", "C", "B"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order: got %v want %v", got, want)
	}
}

func TestLocalScheduleStableForManyTies(t *testing.T) {
	var tasks []model.PlannedTask
	for _, id := range []string{"l1", "m1", "l2", "m2", "l3", "m3", "h1"} {
		p := model.PriorityLow
		switch id[0] {
		case 'm':
			p = model.PriorityMedium
		case 'h':
			p = model.PriorityHigh
		}
		tasks = append(tasks, task(id, id, p, 10))
	}
	got := blockIDs(LocalSchedule(tasks, DefaultAnchor))
	want := []string{"h1", "m1", "m2", "m3", "l1", "l2", "l3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order: got %v want %v", got, want)
	}
}

func TestLocalScheduleBackToBack(t *testing.T) {
	blocks := LocalSchedule([]model.PlannedTask{
		task("X", "X", model.PriorityMedium, 60),
		task("Y", "Y", model.PriorityMedium, 30),
	}, DefaultAnchor)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Start.String() != "09:00" || blocks[0].End.String() != "10:00" {
		t.Fatalf("X: %s-%s", blocks[0].Start, blocks[0].End)
	}
	if blocks[1].Start.String() != "10:00" || blocks[1].End.String() != "10:30" {
		t.Fatalf("Y: %s-%s", blocks[1].Start, blocks[1].End)
	}
	if blocks[1].DurationMinutes != 30 || blocks[1].Index != 1 {
		t.Fatalf("unexpected second block: %+v", blocks[1])
	}
}

func TestLocalScheduleEmpty(t *testing.T) {
	blocks := LocalSchedule(nil, DefaultAnchor)
	if blocks == nil || len(blocks) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", blocks)
	}
}

func TestLocalScheduleMissingDurationDefaults(t *testing.T) {
	blocks := LocalSchedule([]model.PlannedTask{
		task("Z", "Z", model.PriorityLow, 0),
		task("W", "W", model.PriorityLow, -10),
	}, DefaultAnchor)
	if blocks[0].DurationMinutes != 60 || blocks[0].End.String() != "10:00" {
		t.Fatalf("missing duration not defaulted: %+v", blocks[0])
	}
	if blocks[1].Start.String() != "10:00" || blocks[1].End.String() != "11:00" {
		t.Fatalf("negative duration not defaulted: %+v", blocks[1])
	}
}

func TestLocalScheduleRunsPastMidnight(t *testing.T) {
	blocks := LocalSchedule([]model.PlannedTask{
		task("late", "late", model.PriorityHigh, 180),
	}, model.NewClock(22, 30))
	if blocks[0].End.String() != "25:30" {
		t.Fatalf("expected 25:30, got %s", blocks[0].End)
	}
}

func TestLocalScheduleDeterministicAndPure(t *testing.T) {
	tasks := []model.PlannedTask{
		task("1", "one", model.PriorityLow, 15),
		task("2", "two", model.PriorityHigh, 45),
	}
	first := LocalSchedule(tasks, DefaultAnchor)
	second := LocalSchedule(tasks, DefaultAnchor)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same input produced different schedules")
	}
	if tasks[0].ID != "1" {
		t.Fatal("input slice was reordered")
	}
}
