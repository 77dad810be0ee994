package planner

import (
	"strings"

	"smart-planner/internal/model"
)

const tentativePrefix = "local-"

func isTentative(id string) bool {
	return strings.HasPrefix(id, tentativePrefix)
}

// Merge folds a remote listing into local records. Local order is kept.
// Synced records take the remote fields, or disappear when the remote no
// longer has them. Pending and failed records are local edits not yet
// confirmed and win over the remote copy. Remote-only records are appended
// unless they were removed locally. Records in touched changed after the
// listing was taken and also keep their local copy.
func Merge(local, remote []model.PlannedTask, removed, touched map[string]bool) []model.PlannedTask {
	byID := make(map[string]model.PlannedTask, len(remote))
	for _, r := range remote {
		byID[r.ID] = r
	}

	seen := make(map[string]bool, len(local))
	out := make([]model.PlannedTask, 0, len(local)+len(remote))
	for _, l := range local {
		seen[l.ID] = true
		if l.Sync != model.SyncSynced || touched[l.ID] {
			out = append(out, l)
			continue
		}
		if r, ok := byID[l.ID]; ok {
			r.Sync = model.SyncSynced
			r.SetStatus(r.Status)
			out = append(out, r)
		}
	}
	for _, r := range remote {
		if seen[r.ID] || removed[r.ID] {
			continue
		}
		seen[r.ID] = true
		r.Sync = model.SyncSynced
		r.SetStatus(r.Status)
		out = append(out, r)
	}
	return out
}

type createResolution struct {
	tasks []model.PlannedTask
	// orphan is set when the tentative record was removed while the create
	// was in flight; the remote copy must be deleted.
	orphan bool
	// push is set when the local status changed during the create and the
	// remote copy has to be updated.
	push bool
	task model.PlannedTask
}

// resolveCreate replaces a tentative record with the backend's copy.
func resolveCreate(local []model.PlannedTask, tentativeID string, created model.PlannedTask, removed map[string]bool) createResolution {
	idx := indexOf(local, tentativeID)
	if idx < 0 || removed[tentativeID] {
		return createResolution{tasks: local, orphan: true, task: created}
	}

	if existing := indexOf(local, created.ID); existing >= 0 {
		out := removeAt(local, idx)
		return createResolution{tasks: out, task: local[existing]}
	}

	out := make([]model.PlannedTask, len(local))
	copy(out, local)
	want := local[idx].Status
	created.Sync = model.SyncSynced
	if created.Status != want {
		created.SetStatus(want)
		created.Sync = model.SyncPending
	} else {
		created.SetStatus(created.Status)
	}
	out[idx] = created
	return createResolution{tasks: out, push: created.Sync == model.SyncPending, task: created}
}

func markSync(local []model.PlannedTask, id string, state model.SyncState) []model.PlannedTask {
	idx := indexOf(local, id)
	if idx < 0 {
		return local
	}
	out := make([]model.PlannedTask, len(local))
	copy(out, local)
	out[idx].Sync = state
	return out
}

func indexOf(tasks []model.PlannedTask, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func removeAt(tasks []model.PlannedTask, idx int) []model.PlannedTask {
	out := make([]model.PlannedTask, 0, len(tasks)-1)
	out = append(out, tasks[:idx]...)
	return append(out, tasks[idx+1:]...)
}
