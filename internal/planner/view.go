package planner

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"smart-planner/internal/model"
)

// Source tells which path produced the visible timeline.
type Source string

const (
	SourceAuthoritative Source = "ai"
	SourceLocal         Source = "local"
	SourceEmpty         Source = "empty"
)

// DefaultTips are shown when the backend sent no wellness tips.
var DefaultTips = []string{
	"💧 Remember to stay hydrated throughout the day!",
	"🚶 Take a 5-minute walk between tasks to refresh your mind.",
	"🎯 Focus on one task at a time for maximum productivity.",
}

// View decides which timeline the user sees: the backend schedule when one
// is cached and still current, otherwise the local plan over unfinished
// tasks.
type View struct {
	store   *Store
	remote  ScheduleRemote
	anchor  model.Clock
	timeout time.Duration

	mu           sync.Mutex
	authority    []model.ScheduleBlock
	tips         []string
	authAdded    uint64
	local        []model.ScheduleBlock
	localVersion uint64
	localValid   bool
}

func NewView(store *Store, remote ScheduleRemote, anchor model.Clock, timeout time.Duration) *View {
	return &View{store: store, remote: remote, anchor: anchor, timeout: timeout}
}

// Timeline returns the blocks to display and where they came from.
func (v *View) Timeline() ([]model.ScheduleBlock, Source) {
	v.mu.Lock()
	defer v.mu.Unlock()

	version := v.store.Version()
	if blocks := v.authoritativeLocked(version); len(blocks) > 0 {
		return blocks, SourceAuthoritative
	}

	pending := v.store.List(Filter{Status: model.StatusPending})
	if len(pending) == 0 {
		return []model.ScheduleBlock{}, SourceEmpty
	}
	if !v.localValid || v.localVersion != version.Changed || !v.covers(pending) {
		v.local = LocalSchedule(pending, v.anchor)
		v.localVersion = version.Changed
		v.localValid = true
	}
	return v.liveBlocks(v.local), SourceLocal
}

// Regenerate asks the backend for a fresh schedule. Any failure, including
// a timeout or a payload that does not validate, drops the cached schedule
// and recomputes the local plan over unfinished tasks.
func (v *View) Regenerate(ctx context.Context) ([]model.ScheduleBlock, Source) {
	callCtx, cancel := v.callContext(ctx)
	defer cancel()

	version := v.store.Version()
	remote, err := v.remote.GenerateSchedule(callCtx)
	var blocks []model.ScheduleBlock
	if err == nil {
		blocks, err = NormalizeSchedule(remote, v.store.List(Filter{}))
	} else {
		err = fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	v.mu.Lock()
	if err != nil || len(blocks) == 0 {
		if err != nil {
			log.Printf("generate schedule, using local plan: %v", err)
		}
		v.authority = nil
		v.tips = nil
		v.recomputeLocalLocked()
	} else {
		v.authority = blocks
		v.tips = cleanTips(remote.Tips)
		v.authAdded = version.Added
	}
	v.mu.Unlock()

	return v.Timeline()
}

// Load adopts the backend's current schedule on a fresh start. Errors leave
// the view on the local plan.
func (v *View) Load(ctx context.Context) {
	callCtx, cancel := v.callContext(ctx)
	defer cancel()

	version := v.store.Version()
	remote, err := v.remote.CurrentSchedule(callCtx)
	if err != nil {
		log.Printf("load current schedule: %v", err)
		return
	}
	blocks, err := NormalizeSchedule(remote, v.store.List(Filter{}))
	if err != nil {
		log.Printf("load current schedule: %v", err)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.authority = blocks
	v.tips = cleanTips(remote.Tips)
	v.authAdded = version.Added
}

// Tips returns the backend's wellness tips while its schedule is the one on
// screen, or DefaultTips.
func (v *View) Tips() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.tips) > 0 && len(v.authoritativeLocked(v.store.Version())) > 0 {
		return append([]string(nil), v.tips...)
	}
	return append([]string(nil), DefaultTips...)
}

// Clear forgets both cached timelines.
func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.authority = nil
	v.tips = nil
	v.local = nil
	v.localValid = false
}

// authoritativeLocked returns the live backend blocks, or nil when there
// are none or a task was added since they were fetched.
func (v *View) authoritativeLocked(version Version) []model.ScheduleBlock {
	if len(v.authority) == 0 || version.Added != v.authAdded {
		return nil
	}
	return v.liveBlocks(v.authority)
}

func (v *View) recomputeLocalLocked() {
	version := v.store.Version()
	v.local = LocalSchedule(v.store.List(Filter{Status: model.StatusPending}), v.anchor)
	v.localVersion = version.Changed
	v.localValid = true
}

// liveBlocks drops blocks whose task is gone and renumbers the rest.
func (v *View) liveBlocks(blocks []model.ScheduleBlock) []model.ScheduleBlock {
	out := make([]model.ScheduleBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.TaskID != "" {
			if !v.store.Has(b.TaskID) {
				continue
			}
			b.TaskID = v.store.Resolve(b.TaskID)
		}
		b.Index = len(out)
		out = append(out, b)
	}
	return out
}

// covers reports whether every pending task has a block in the cached local
// plan. A task switched back to pending after the plan was built is not.
func (v *View) covers(pending []model.PlannedTask) bool {
	have := make(map[string]bool, len(v.local))
	for _, b := range v.local {
		have[v.store.Resolve(b.TaskID)] = true
	}
	for _, t := range pending {
		if !have[t.ID] {
			return false
		}
	}
	return true
}

func (v *View) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, v.timeout)
}

// NormalizeSchedule validates a backend schedule and ties its items to
// tasks. Items carry a task id when the backend knows it; otherwise the
// first unused task with the same title is taken. Items that match no task
// keep an empty TaskID.
func NormalizeSchedule(remote RemoteSchedule, tasks []model.PlannedTask) ([]model.ScheduleBlock, error) {
	byID := make(map[string]model.PlannedTask, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	used := make(map[string]bool, len(tasks))

	blocks := make([]model.ScheduleBlock, 0, len(remote.Items))
	for i, item := range remote.Items {
		title := strings.TrimSpace(item.Task)
		if title == "" {
			return nil, fmt.Errorf("%w: item %d has no task title", ErrMalformedSchedule, i)
		}
		start, err := model.ParseClock(item.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", ErrMalformedSchedule, i, err)
		}
		end, err := model.ParseClock(item.End)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", ErrMalformedSchedule, i, err)
		}
		if end < start {
			return nil, fmt.Errorf("%w: item %d ends at %s before it starts at %s", ErrMalformedSchedule, i, end, start)
		}

		block := model.ScheduleBlock{
			Title:           title,
			Start:           start,
			End:             end,
			DurationMinutes: int(end - start),
		}
		task, ok := byID[strings.TrimSpace(item.TaskID)]
		if !ok || used[task.ID] {
			task, ok = matchTitle(tasks, title, used)
		}
		if ok {
			used[task.ID] = true
			block.TaskID = task.ID
			if task.DurationMinutes > 0 {
				block.DurationMinutes = task.DurationMinutes
			}
		}
		blocks = append(blocks, block)
	}

	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
	for i := range blocks {
		blocks[i].Index = i
	}
	return blocks, nil
}

func matchTitle(tasks []model.PlannedTask, title string, used map[string]bool) (model.PlannedTask, bool) {
	for _, t := range tasks {
		if used[t.ID] {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(t.Title), title) {
			return t, true
		}
	}
	return model.PlannedTask{}, false
}

func cleanTips(tips []string) []string {
	out := make([]string, 0, len(tips))
	for _, tip := range tips {
		if trimmed := strings.TrimSpace(tip); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
