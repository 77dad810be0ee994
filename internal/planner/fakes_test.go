package planner

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"smart-planner/internal/model"
)

var errOffline = errors.New("backend offline")

// fakeRemote is an in-memory backend. Each failX flag makes the matching
// call fail; hooks run inside the call before it returns. onList runs after
// the listing was copied, so anything it does is missing from the result.
type fakeRemote struct {
	mu     sync.Mutex
	nextID int
	tasks  []model.PlannedTask

	failCreate, failUpdate, failDelete, failList bool
	failGenerate, failCurrent, failCheckIn       bool

	onCreate func()
	onList   func()

	generated RemoteSchedule
	current   RemoteSchedule
	streak    model.Streak

	creates, updates, deletes, checkIns int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{nextID: 100}
}

func (f *fakeRemote) CreateTask(_ context.Context, d model.TaskDraft) (model.PlannedTask, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failCreate {
		return model.PlannedTask{}, errOffline
	}
	f.nextID++
	t := d.Planned(strconv.Itoa(f.nextID), model.SyncSynced)
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeRemote) UpdateTaskStatus(_ context.Context, id string, status model.Status) (model.PlannedTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.failUpdate {
		return model.PlannedTask{}, errOffline
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].SetStatus(status)
			return f.tasks[i], nil
		}
	}
	return model.PlannedTask{}, errors.New("not found")
}

func (f *fakeRemote) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.failDelete {
		return errOffline
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRemote) ListTasks(context.Context) ([]model.PlannedTask, error) {
	f.mu.Lock()
	if f.failList {
		f.mu.Unlock()
		return nil, errOffline
	}
	listed := append([]model.PlannedTask(nil), f.tasks...)
	hook := f.onList
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return listed, nil
}

func (f *fakeRemote) GenerateSchedule(ctx context.Context) (RemoteSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGenerate {
		return RemoteSchedule{}, errOffline
	}
	return f.generated, nil
}

func (f *fakeRemote) CurrentSchedule(context.Context) (RemoteSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCurrent {
		return RemoteSchedule{}, errOffline
	}
	return f.current, nil
}

func (f *fakeRemote) CheckIn(context.Context) (model.Streak, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkIns++
	if f.failCheckIn {
		return model.Streak{}, errOffline
	}
	f.streak.CurrentStreak++
	return f.streak, nil
}

func (f *fakeRemote) Streak(context.Context) (model.Streak, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCheckIn {
		return model.Streak{}, errOffline
	}
	return f.streak, nil
}

func (f *fakeRemote) set(fn func(f *fakeRemote)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeRemote) count(fn func(f *fakeRemote) int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}
