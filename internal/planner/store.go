package planner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"smart-planner/internal/model"
)

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Status   model.Status
	Priority model.Priority
}

func (f Filter) match(t model.PlannedTask) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	return true
}

// Transition describes a status change applied by SetStatus or Toggle.
type Transition struct {
	ID   string
	From model.Status
	To   model.Status
}

// Completes reports a pending to completed edge.
func (t Transition) Completes() bool {
	return t.From != model.StatusCompleted && t.To == model.StatusCompleted
}

// Version counts membership changes. Added moves on every new record,
// Changed on any addition or removal.
type Version struct {
	Added   uint64
	Changed uint64
}

// Store keeps the ordered task list of a planning session. Every mutation is
// applied locally first and then pushed to the backend; backend failures
// never undo a local change.
type Store struct {
	remote  TaskRemote
	timeout time.Duration

	mu      sync.Mutex
	tasks   []model.PlannedTask
	removed map[string]bool
	aliases map[string]string
	revs    map[string]uint64
	version Version
	newID   func() string
	// discarded is set once the session let go of the store; late create
	// results are then dropped without touching the backend.
	discarded bool
}

func NewStore(remote TaskRemote, timeout time.Duration) *Store {
	return &Store{
		remote:  remote,
		timeout: timeout,
		removed: make(map[string]bool),
		aliases: make(map[string]string),
		revs:    make(map[string]uint64),
		newID: func() string {
			return tentativePrefix + uuid.Must(uuid.NewV4()).String()
		},
	}
}

// Add validates the draft, appends it and tries to persist it. A backend
// failure keeps the task locally with sync state failed.
func (s *Store) Add(ctx context.Context, draft model.TaskDraft) (model.PlannedTask, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return model.PlannedTask{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.mu.Lock()
	id := s.newID()
	task := draft.Planned(id, model.SyncPending)
	s.tasks = append(s.tasks, task)
	s.version.Added++
	s.version.Changed++
	s.mu.Unlock()

	return s.pushCreate(ctx, id, draft), nil
}

func (s *Store) pushCreate(ctx context.Context, id string, draft model.TaskDraft) model.PlannedTask {
	callCtx, cancel := s.callContext(ctx)
	created, err := s.remote.CreateTask(callCtx, draft)
	cancel()

	s.mu.Lock()
	if err != nil {
		s.tasks = markSync(s.tasks, id, model.SyncFailed)
		task, _ := s.getLocked(id)
		s.mu.Unlock()
		log.Printf("create task %q: %v", draft.Title, err)
		return task
	}

	if s.discarded {
		s.mu.Unlock()
		return created
	}

	res := resolveCreate(s.tasks, id, created, s.removed)
	s.tasks = res.tasks
	if res.orphan {
		s.removed[created.ID] = true
	} else {
		s.aliases[id] = res.task.ID
	}
	var rev uint64
	if res.push {
		s.revs[res.task.ID]++
		rev = s.revs[res.task.ID]
	}
	s.mu.Unlock()

	switch {
	case res.orphan:
		log.Printf("[info] task %s removed before create finished, deleting remote copy %s", id, created.ID)
		s.pushDelete(ctx, created.ID)
		return created
	case res.push:
		s.pushStatus(ctx, res.task.ID, res.task.Status, rev)
		task, _ := s.Get(res.task.ID)
		return task
	default:
		return res.task
	}
}

// Remove drops a task by id. Unknown ids are a no-op and report false.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	id = s.resolveLocked(id)
	idx := indexOf(s.tasks, id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = removeAt(s.tasks, idx)
	s.removed[id] = true
	s.version.Changed++
	s.mu.Unlock()

	// A tentative record either never reached the backend or is still in
	// flight; pushCreate deletes the orphan once the id is known.
	if !isTentative(id) {
		s.pushDelete(ctx, id)
	}
	return true
}

func (s *Store) pushDelete(ctx context.Context, id string) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.remote.DeleteTask(callCtx, id); err != nil {
		log.Printf("delete task %s: %v", id, err)
	}
}

// SetStatus changes the status of a task. The returned transition is
// computed under the store lock, so of two concurrent completions only one
// reports Completes.
func (s *Store) SetStatus(ctx context.Context, id string, status model.Status) (Transition, bool) {
	if !status.IsValid() {
		return Transition{}, false
	}
	return s.mutateStatus(ctx, id, func(model.Status) model.Status { return status })
}

// Toggle flips a task between pending and completed.
func (s *Store) Toggle(ctx context.Context, id string) (Transition, bool) {
	return s.mutateStatus(ctx, id, func(cur model.Status) model.Status {
		if cur == model.StatusCompleted {
			return model.StatusPending
		}
		return model.StatusCompleted
	})
}

func (s *Store) mutateStatus(ctx context.Context, id string, next func(model.Status) model.Status) (Transition, bool) {
	s.mu.Lock()
	id = s.resolveLocked(id)
	idx := indexOf(s.tasks, id)
	if idx < 0 {
		s.mu.Unlock()
		return Transition{}, false
	}
	from := s.tasks[idx].Status
	to := next(from)
	tr := Transition{ID: id, From: from, To: to}
	if from == to {
		s.mu.Unlock()
		return tr, true
	}
	s.tasks[idx].SetStatus(to)
	if isTentative(id) {
		// The create result carries the status once it lands.
		s.mu.Unlock()
		return tr, true
	}
	s.tasks[idx].Sync = model.SyncPending
	s.revs[id]++
	rev := s.revs[id]
	s.mu.Unlock()

	s.pushStatus(ctx, id, to, rev)
	return tr, true
}

func (s *Store) pushStatus(ctx context.Context, id string, status model.Status, rev uint64) {
	callCtx, cancel := s.callContext(ctx)
	_, err := s.remote.UpdateTaskStatus(callCtx, id, status)
	cancel()
	if err != nil {
		log.Printf("update task %s status=%s: %v", id, status, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revs[id] != rev {
		// A newer update owns the sync state.
		return
	}
	state := model.SyncSynced
	if err != nil {
		state = model.SyncFailed
	}
	s.tasks = markSync(s.tasks, id, state)
}

// Refresh retries failed records and folds the backend listing in.
func (s *Store) Refresh(ctx context.Context) error {
	s.retryFailed(ctx)

	s.mu.Lock()
	listedRevs := make(map[string]uint64, len(s.revs))
	for id, rev := range s.revs {
		listedRevs[id] = rev
	}
	listedIDs := make(map[string]bool, len(s.tasks))
	for _, t := range s.tasks {
		listedIDs[t.ID] = true
	}
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx)
	remote, err := s.remote.ListTasks(callCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("%w: list tasks: %w", ErrRemoteUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded {
		return nil
	}
	before := make(map[string]bool, len(s.tasks))
	// Records created or updated while the listing was in flight are newer
	// than it.
	touched := make(map[string]bool)
	for _, t := range s.tasks {
		before[t.ID] = true
		if !listedIDs[t.ID] || s.revs[t.ID] != listedRevs[t.ID] {
			touched[t.ID] = true
		}
	}
	merged := Merge(s.tasks, remote, s.removed, touched)
	added := false
	for _, t := range merged {
		if !before[t.ID] {
			added = true
			break
		}
	}
	if added {
		s.version.Added++
	}
	if added || len(merged) != len(s.tasks) {
		s.version.Changed++
	}
	s.tasks = merged
	return nil
}

func (s *Store) retryFailed(ctx context.Context) {
	s.mu.Lock()
	var failed []model.PlannedTask
	for _, t := range s.tasks {
		if t.Sync == model.SyncFailed {
			failed = append(failed, t)
		}
	}
	s.mu.Unlock()

	for _, t := range failed {
		if isTentative(t.ID) {
			s.mu.Lock()
			s.tasks = markSync(s.tasks, t.ID, model.SyncPending)
			s.mu.Unlock()
			s.pushCreate(ctx, t.ID, draftOf(t))
			continue
		}
		s.mu.Lock()
		s.revs[t.ID]++
		rev := s.revs[t.ID]
		s.mu.Unlock()
		s.pushStatus(ctx, t.ID, t.Status, rev)
	}
}

// Reset clears the whole list for a new plan and deletes synced tasks on
// the backend. It returns how many tasks were dropped.
func (s *Store) Reset(ctx context.Context) int {
	s.mu.Lock()
	dropped := s.tasks
	s.tasks = nil
	for _, t := range dropped {
		s.removed[t.ID] = true
	}
	s.version.Added++
	s.version.Changed++
	s.mu.Unlock()

	for _, t := range dropped {
		if !isTentative(t.ID) {
			s.pushDelete(ctx, t.ID)
		}
	}
	return len(dropped)
}

// Discard forgets every record locally. The backend is not told; its copies
// stay for the next session.
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.discarded = true
	s.version.Added++
	s.version.Changed++
}

// List returns copies in insertion order.
func (s *Store) List(filter Filter) []model.PlannedTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PlannedTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) Get(id string) (model.PlannedTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(s.resolveLocked(id))
}

// Has reports whether id, or the backend id it was re-keyed to, is present.
func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Resolve maps a tentative id to its backend id when one is known.
func (s *Store) Resolve(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(id)
}

// Counts returns the number of tasks and how many of them are completed.
func (s *Store) Counts() (total, completed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.Completed {
			completed++
		}
	}
	return len(s.tasks), completed
}

func (s *Store) Version() Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Store) getLocked(id string) (model.PlannedTask, bool) {
	idx := indexOf(s.tasks, id)
	if idx < 0 {
		return model.PlannedTask{}, false
	}
	return s.tasks[idx], true
}

func (s *Store) resolveLocked(id string) string {
	if real, ok := s.aliases[id]; ok {
		return real
	}
	return id
}

func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func draftOf(t model.PlannedTask) model.TaskDraft {
	return model.TaskDraft{
		Title:           t.Title,
		DurationMinutes: t.DurationMinutes,
		Priority:        t.Priority,
		Deadline:        t.Deadline,
		PreferredTime:   t.PreferredTime,
	}
}
