package planner

import (
	"testing"

	"smart-planner/internal/model"
)

func withSync(t model.PlannedTask, s model.SyncState) model.PlannedTask {
	t.Sync = s
	return t
}

func TestMergeRules(t *testing.T) {
	synced := task("1", "synced", model.PriorityLow, 10)
	gone := task("2", "deleted elsewhere", model.PriorityLow, 10)
	edited := withSync(task("3", "edited offline", model.PriorityLow, 10), model.SyncFailed)
	edited.SetStatus(model.StatusCompleted)
	offline := withSync(task("local-x", "offline", model.PriorityLow, 10), model.SyncFailed)

	remoteSynced := synced
	remoteSynced.SetStatus(model.StatusCompleted)
	remoteEdited := task("3", "edited offline", model.PriorityLow, 10)
	newcomer := task("4", "from elsewhere", model.PriorityHigh, 10)
	tombstoned := task("5", "removed here", model.PriorityHigh, 10)

	out := Merge(
		[]model.PlannedTask{synced, gone, edited, offline},
		[]model.PlannedTask{newcomer, remoteEdited, remoteSynced, tombstoned},
		map[string]bool{"5": true},
		nil,
	)

	var ids []string
	for _, t := range out {
		ids = append(ids, t.ID)
	}
	want := []string{"1", "3", "local-x", "4"}
	if len(ids) != len(want) {
		t.Fatalf("ids: got %v want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids: got %v want %v", ids, want)
		}
	}
	if !out[0].Completed {
		t.Fatal("synced record should take remote status")
	}
	if !out[1].Completed || out[1].Sync != model.SyncFailed {
		t.Fatal("unconfirmed local edit should win")
	}
	if out[3].Sync != model.SyncSynced {
		t.Fatal("remote-only record should be synced")
	}
}

func TestMergeKeepsTouchedRecords(t *testing.T) {
	added := task("7", "added during listing", model.PriorityLow, 10)
	done := task("8", "completed during listing", model.PriorityLow, 10)
	done.SetStatus(model.StatusCompleted)
	stale := task("8", "completed during listing", model.PriorityLow, 10)

	out := Merge(
		[]model.PlannedTask{added, done},
		[]model.PlannedTask{stale},
		nil,
		map[string]bool{"7": true, "8": true},
	)
	if len(out) != 2 || out[0].ID != "7" || out[1].Status != model.StatusCompleted || !out[1].Completed {
		t.Fatalf("touched records overwritten: %+v", out)
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	local := []model.PlannedTask{task("1", "a", model.PriorityLow, 10)}
	remote := []model.PlannedTask{task("1", "renamed", model.PriorityLow, 10)}
	Merge(local, remote, nil, nil)
	if local[0].Title != "a" {
		t.Fatal("merge mutated the local slice")
	}
}

func TestResolveCreateDropsDuplicate(t *testing.T) {
	tentative := withSync(task("local-1", "a", model.PriorityLow, 10), model.SyncPending)
	already := task("9", "a", model.PriorityLow, 10)
	res := resolveCreate([]model.PlannedTask{already, tentative}, "local-1", task("9", "a", model.PriorityLow, 10), nil)
	if len(res.tasks) != 1 || res.tasks[0].ID != "9" || res.orphan {
		t.Fatalf("duplicate not dropped: %+v", res)
	}
}
