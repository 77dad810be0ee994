package planner

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"smart-planner/internal/model"
)

var ErrSessionClosed = errors.New("planner: session closed")

// Options tune a session. Zero durations pick defaults; a nil Anchor starts
// the local plan at DefaultAnchor.
type Options struct {
	Anchor          *model.Clock
	RemoteTimeout   time.Duration
	ScheduleTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Anchor == nil {
		anchor := DefaultAnchor
		o.Anchor = &anchor
	}
	if o.RemoteTimeout <= 0 {
		o.RemoteTimeout = 10 * time.Second
	}
	if o.ScheduleTimeout <= 0 {
		o.ScheduleTimeout = 30 * time.Second
	}
	return o
}

// Session is one user's planning state between login and logout. Nothing
// below it reads user identity from anywhere else.
type Session struct {
	userID  uint
	store   *Store
	view    *View
	tracker *Tracker

	mu     sync.RWMutex
	closed bool
}

func NewSession(userID uint, remote Remote, opts Options) *Session {
	opts = opts.withDefaults()
	store := NewStore(remote, opts.RemoteTimeout)
	return &Session{
		userID:  userID,
		store:   store,
		view:    NewView(store, remote, *opts.Anchor, opts.ScheduleTimeout),
		tracker: NewTracker(store, remote, opts.RemoteTimeout),
	}
}

// Open loads tasks and the current schedule from the backend. A backend
// failure leaves an empty, usable session.
func (s *Session) Open(ctx context.Context) {
	if s.isClosed() {
		return
	}
	if err := s.store.Refresh(ctx); err != nil {
		log.Printf("open session user=%d: %v", s.userID, err)
	}
	s.view.Load(ctx)
}

func (s *Session) UserID() uint { return s.userID }

func (s *Session) AddTask(ctx context.Context, draft model.TaskDraft) (model.PlannedTask, error) {
	if s.isClosed() {
		return model.PlannedTask{}, ErrSessionClosed
	}
	return s.store.Add(ctx, draft)
}

func (s *Session) RemoveTask(ctx context.Context, id string) (bool, error) {
	if s.isClosed() {
		return false, ErrSessionClosed
	}
	return s.store.Remove(ctx, id), nil
}

func (s *Session) SetStatus(ctx context.Context, id string, status model.Status) (Transition, bool, error) {
	if s.isClosed() {
		return Transition{}, false, ErrSessionClosed
	}
	tr, ok := s.tracker.SetStatus(ctx, id, status)
	return tr, ok, nil
}

func (s *Session) Toggle(ctx context.Context, id string) (Transition, bool, error) {
	if s.isClosed() {
		return Transition{}, false, ErrSessionClosed
	}
	tr, ok := s.tracker.Toggle(ctx, id)
	return tr, ok, nil
}

func (s *Session) Task(id string) (model.PlannedTask, bool) {
	return s.store.Get(id)
}

func (s *Session) Tasks(filter Filter) []model.PlannedTask {
	return s.store.List(filter)
}

func (s *Session) Timeline() ([]model.ScheduleBlock, Source) {
	return s.view.Timeline()
}

func (s *Session) Regenerate(ctx context.Context) ([]model.ScheduleBlock, Source, error) {
	if s.isClosed() {
		return nil, SourceEmpty, ErrSessionClosed
	}
	blocks, src := s.view.Regenerate(ctx)
	return blocks, src, nil
}

func (s *Session) Tips() []string {
	return s.view.Tips()
}

func (s *Session) Percentage() int {
	return s.tracker.Percentage()
}

func (s *Session) Counts() (total, completed int) {
	return s.tracker.Counts()
}

func (s *Session) Streak(ctx context.Context) (model.Streak, bool) {
	return s.tracker.Streak(ctx)
}

// NewPlan clears every task and both timelines before a new goal-setup cycle.
func (s *Session) NewPlan(ctx context.Context) (int, error) {
	if s.isClosed() {
		return 0, ErrSessionClosed
	}
	n := s.store.Reset(ctx)
	s.view.Clear()
	return n, nil
}

// Sync retries failed records and pulls the backend listing.
func (s *Session) Sync(ctx context.Context) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	return s.store.Refresh(ctx)
}

// Close ends the session and drops its local state. Backend records are
// left alone. Later mutations report ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.store.Discard()
	s.view.Clear()
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Sessions keeps open sessions keyed by an external identity.
type Sessions struct {
	mu   sync.Mutex
	byID map[int64]*Session
}

func NewSessions() *Sessions {
	return &Sessions{byID: make(map[int64]*Session)}
}

// Login registers s under key, closing any session it replaces.
func (r *Sessions) Login(key int64, s *Session) {
	r.mu.Lock()
	old := r.byID[key]
	r.byID[key] = s
	r.mu.Unlock()
	if old != nil && old != s {
		old.Close()
	}
}

func (r *Sessions) Get(key int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[key]
	return s, ok
}

// Logout closes and forgets the session for key.
func (r *Sessions) Logout(key int64) bool {
	r.mu.Lock()
	s, ok := r.byID[key]
	delete(r.byID, key)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Each calls fn for every open session. fn runs without the registry lock.
func (r *Sessions) Each(fn func(key int64, s *Session)) {
	r.mu.Lock()
	snapshot := make(map[int64]*Session, len(r.byID))
	for k, s := range r.byID {
		snapshot[k] = s
	}
	r.mu.Unlock()
	for k, s := range snapshot {
		fn(k, s)
	}
}
