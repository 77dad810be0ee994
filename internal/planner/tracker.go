package planner

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"smart-planner/internal/model"
)

// CompletionPercentage is round(100*completed/total), 0 for an empty list.
func CompletionPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// Tracker derives completion from the store and sends a streak check-in on
// every pending to completed edge. Unchecking never touches the streak.
type Tracker struct {
	store   *Store
	remote  StreakRemote
	timeout time.Duration

	mu       sync.Mutex
	streak   model.Streak
	known    bool
	checkIns int
}

func NewTracker(store *Store, remote StreakRemote, timeout time.Duration) *Tracker {
	return &Tracker{store: store, remote: remote, timeout: timeout}
}

func (t *Tracker) SetStatus(ctx context.Context, id string, status model.Status) (Transition, bool) {
	tr, ok := t.store.SetStatus(ctx, id, status)
	if ok && tr.Completes() {
		t.checkIn(ctx)
	}
	return tr, ok
}

func (t *Tracker) Toggle(ctx context.Context, id string) (Transition, bool) {
	tr, ok := t.store.Toggle(ctx, id)
	if ok && tr.Completes() {
		t.checkIn(ctx)
	}
	return tr, ok
}

func (t *Tracker) checkIn(ctx context.Context) {
	t.mu.Lock()
	t.checkIns++
	t.mu.Unlock()

	callCtx, cancel := t.callContext(ctx)
	defer cancel()
	streak, err := t.remote.CheckIn(callCtx)
	if err != nil {
		log.Printf("streak check-in skipped: %v", err)
		return
	}
	t.mu.Lock()
	t.streak = streak
	t.known = true
	t.mu.Unlock()
}

// CheckIns counts the check-ins this tracker has attempted.
func (t *Tracker) CheckIns() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkIns
}

func (t *Tracker) Percentage() int {
	total, completed := t.store.Counts()
	return CompletionPercentage(completed, total)
}

func (t *Tracker) Counts() (total, completed int) {
	return t.store.Counts()
}

// Streak returns the backend streak, falling back to the last value seen.
// The bool is false when no value is available at all.
func (t *Tracker) Streak(ctx context.Context) (model.Streak, bool) {
	callCtx, cancel := t.callContext(ctx)
	defer cancel()
	streak, err := t.remote.Streak(callCtx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		log.Printf("load streak: %v", err)
		return t.streak, t.known
	}
	t.streak = streak
	t.known = true
	return streak, true
}

func (t *Tracker) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.timeout)
}
