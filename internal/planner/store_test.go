package planner

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"smart-planner/internal/model"
)

func draft(title string, p model.Priority, minutes int) model.TaskDraft {
	return model.TaskDraft{Title: title, Priority: p, DurationMinutes: minutes}
}

func TestStoreAddAppendsAndSyncs(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	ctx := context.Background()

	first, err := store.Add(ctx, draft("Write report", model.PriorityHigh, 60))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, _ := store.Add(ctx, draft("Gym", model.PriorityLow, 45))

	if first.ID != "101" || first.Sync != model.SyncSynced {
		t.Fatalf("first task not re-keyed to backend id: %+v", first)
	}
	got := store.List(Filter{})
	if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("insertion order not kept: %+v", got)
	}
}

func TestStoreAddRejectsInvalidInputWithoutSideEffects(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)

	for _, d := range []model.TaskDraft{
		draft("", model.PriorityHigh, 30),
		draft("Nap", model.PriorityLow, 0),
	} {
		if _, err := store.Add(context.Background(), d); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	}
	if n := len(store.List(Filter{})); n != 0 {
		t.Fatalf("store mutated on invalid input: %d tasks", n)
	}
	if remote.creates != 0 {
		t.Fatalf("remote called on invalid input: %d", remote.creates)
	}
}

func TestStoreAddKeepsTaskWhenBackendFails(t *testing.T) {
	remote := newFakeRemote()
	remote.failCreate = true
	store := NewStore(remote, 0)

	task, err := store.Add(context.Background(), draft("Offline task", model.PriorityMedium, 20))
	if err != nil {
		t.Fatalf("offline add must not fail: %v", err)
	}
	if !strings.HasPrefix(task.ID, "local-") || task.Sync != model.SyncFailed {
		t.Fatalf("expected tentative failed record, got %+v", task)
	}
	if !store.Has(task.ID) {
		t.Fatal("task dropped after backend failure")
	}
}

func TestStoreOptimisticStateVisibleDuringCreate(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	var seen []model.PlannedTask
	remote.onCreate = func() { seen = store.List(Filter{}) }

	if _, err := store.Add(context.Background(), draft("Plan", model.PriorityHigh, 30)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(seen) != 1 || seen[0].Sync != model.SyncPending {
		t.Fatalf("expected pending record before confirmation, saw %+v", seen)
	}
}

func TestStoreRemoveIsIdempotent(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	ctx := context.Background()
	a, _ := store.Add(ctx, draft("A", model.PriorityLow, 10))
	b, _ := store.Add(ctx, draft("B", model.PriorityLow, 10))

	if !store.Remove(ctx, a.ID) {
		t.Fatal("first remove should report true")
	}
	once := store.List(Filter{})
	if store.Remove(ctx, a.ID) {
		t.Fatal("second remove should be a no-op")
	}
	if !reflect.DeepEqual(once, store.List(Filter{})) {
		t.Fatal("second remove changed the store")
	}
	if len(once) != 1 || once[0].ID != b.ID {
		t.Fatalf("unexpected store after remove: %+v", once)
	}
	if remote.deletes != 1 {
		t.Fatalf("expected one backend delete, got %d", remote.deletes)
	}
}

func TestStoreRemoveKeepsLocalRemovalWhenBackendFails(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	ctx := context.Background()
	a, _ := store.Add(ctx, draft("A", model.PriorityLow, 10))
	remote.failDelete = true

	store.Remove(ctx, a.ID)
	if store.Has(a.ID) {
		t.Fatal("local removal rolled back")
	}
	// The backend still lists it; a refresh must not resurrect it.
	if err := store.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if store.Has(a.ID) {
		t.Fatal("refresh resurrected a removed task")
	}
}

func TestStoreRemoveDuringCreateDeletesOrphan(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	remote.onCreate = func() {
		pending := store.List(Filter{})
		store.Remove(context.Background(), pending[0].ID)
	}

	if _, err := store.Add(context.Background(), draft("Gone", model.PriorityHigh, 10)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if n := len(store.List(Filter{})); n != 0 {
		t.Fatalf("removed task resurrected by create result: %d tasks", n)
	}
	if remote.deletes != 1 || len(remote.tasks) != 0 {
		t.Fatalf("orphan not deleted remotely: deletes=%d tasks=%d", remote.deletes, len(remote.tasks))
	}
}

func TestStoreSetStatusUnknownIDIsNoop(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	if _, ok := store.SetStatus(context.Background(), "nope", model.StatusCompleted); ok {
		t.Fatal("unknown id should report false")
	}
	if remote.updates != 0 {
		t.Fatalf("remote called for unknown id")
	}
}

func TestStoreSetStatusKeepsFlagsTogether(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	ctx := context.Background()
	a, _ := store.Add(ctx, draft("A", model.PriorityLow, 10))

	tr, ok := store.SetStatus(ctx, a.ID, model.StatusCompleted)
	if !ok || !tr.Completes() {
		t.Fatalf("expected completing transition, got %+v ok=%v", tr, ok)
	}
	got, _ := store.Get(a.ID)
	if !got.Completed || got.Status != model.StatusCompleted || got.Sync != model.SyncSynced {
		t.Fatalf("inconsistent task: %+v", got)
	}

	remote.failUpdate = true
	store.Toggle(ctx, a.ID)
	got, _ = store.Get(a.ID)
	if got.Completed || got.Status != model.StatusPending || got.Sync != model.SyncFailed {
		t.Fatalf("failed update should keep local state: %+v", got)
	}
}

func TestStoreStatusChangeOnOfflineTaskIsPushedLater(t *testing.T) {
	remote := newFakeRemote()
	remote.failCreate = true
	store := NewStore(remote, 0)
	ctx := context.Background()
	a, _ := store.Add(ctx, draft("A", model.PriorityLow, 10))
	store.SetStatus(ctx, a.ID, model.StatusCompleted)

	remote.set(func(f *fakeRemote) { f.failCreate = false })
	if err := store.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	tasks := store.List(Filter{})
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %+v", tasks)
	}
	if tasks[0].ID != "101" || !tasks[0].Completed || tasks[0].Sync != model.SyncSynced {
		t.Fatalf("offline edit not reconciled: %+v", tasks[0])
	}
	if remote.tasks[0].Status != model.StatusCompleted {
		t.Fatal("backend did not receive the offline status change")
	}
	// The old tentative id still resolves.
	if !store.Has(a.ID) {
		t.Fatal("tentative id no longer resolves")
	}
}

func TestStoreConcurrentCompletionsReportOneEdge(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	ctx := context.Background()
	a, _ := store.Add(ctx, draft("A", model.PriorityLow, 10))

	var wg sync.WaitGroup
	var mu sync.Mutex
	edges := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, _ := store.SetStatus(ctx, a.ID, model.StatusCompleted)
			if tr.Completes() {
				mu.Lock()
				edges++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if edges != 1 {
		t.Fatalf("expected exactly one completion edge, got %d", edges)
	}
}

func TestStoreListFilter(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	ctx := context.Background()
	a, _ := store.Add(ctx, draft("A", model.PriorityHigh, 10))
	store.Add(ctx, draft("B", model.PriorityLow, 10))
	c, _ := store.Add(ctx, draft("C", model.PriorityHigh, 10))
	store.SetStatus(ctx, c.ID, model.StatusCompleted)

	high := store.List(Filter{Priority: model.PriorityHigh})
	if len(high) != 2 || high[0].ID != a.ID || high[1].ID != c.ID {
		t.Fatalf("priority filter: %+v", high)
	}
	done := store.List(Filter{Status: model.StatusCompleted, Priority: model.PriorityHigh})
	if len(done) != 1 || done[0].ID != c.ID {
		t.Fatalf("combined filter: %+v", done)
	}
}

func TestStoreReset(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	ctx := context.Background()
	store.Add(ctx, draft("A", model.PriorityHigh, 10))
	store.Add(ctx, draft("B", model.PriorityHigh, 10))

	if n := store.Reset(ctx); n != 2 {
		t.Fatalf("expected 2 dropped, got %d", n)
	}
	if len(store.List(Filter{})) != 0 || len(remote.tasks) != 0 {
		t.Fatal("reset left tasks behind")
	}
}

func TestStoreRefreshReportsBackendFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.failList = true
	store := NewStore(remote, 0)
	if err := store.Refresh(context.Background()); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}

// blockListing makes the next ListTasks wait after taking its snapshot until
// the returned release func is called. listed is closed once the snapshot
// exists.
func blockListing(remote *fakeRemote) (listed <-chan struct{}, release func()) {
	taken := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	remote.set(func(f *fakeRemote) {
		f.onList = func() {
			once.Do(func() {
				close(taken)
				<-gate
			})
		}
	})
	return taken, func() { close(gate) }
}

func TestStoreRefreshKeepsTaskAddedDuringListing(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	ctx := context.Background()

	listed, release := blockListing(remote)
	done := make(chan error, 1)
	go func() { done <- store.Refresh(ctx) }()
	<-listed

	added, _ := store.Add(ctx, draft("Late arrival", model.PriorityMedium, 30))
	if added.Sync != model.SyncSynced {
		t.Fatalf("add did not sync: %+v", added)
	}
	release()
	if err := <-done; err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if !store.Has(added.ID) {
		t.Fatalf("task %s dropped by a listing taken before it existed", added.ID)
	}
	if n := len(store.List(Filter{})); n != 1 {
		t.Fatalf("expected 1 task, got %d", n)
	}
}

func TestStoreRefreshKeepsCompletionDuringListing(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote, 0)
	tracker := NewTracker(store, remote, 0)
	ctx := context.Background()
	a, _ := store.Add(ctx, draft("Stretch", model.PriorityLow, 10))

	listed, release := blockListing(remote)
	done := make(chan error, 1)
	go func() { done <- store.Refresh(ctx) }()
	<-listed

	if tr, _ := tracker.Toggle(ctx, a.ID); !tr.Completes() {
		t.Fatalf("expected a completion edge, got %+v", tr)
	}
	release()
	if err := <-done; err != nil {
		t.Fatalf("refresh: %v", err)
	}

	got, _ := store.Get(a.ID)
	if got.Status != model.StatusCompleted || !got.Completed {
		t.Fatalf("stale listing undid the completion: %+v", got)
	}
	// Ticking it again must not produce a second completion edge.
	tracker.SetStatus(ctx, a.ID, model.StatusCompleted)
	if n := remote.count(func(f *fakeRemote) int { return f.checkIns }); n != 1 {
		t.Fatalf("expected 1 check-in, got %d", n)
	}
}
