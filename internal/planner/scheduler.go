package planner

import (
	"sort"

	"smart-planner/internal/model"
)

const (
	// DefaultAnchor is where the local plan starts when no preference is set.
	DefaultAnchor model.Clock = 9 * 60
	// DefaultDurationMinutes stands in for a missing or non-positive duration.
	DefaultDurationMinutes = 60
)

// LocalSchedule lays tasks out back to back from anchor, highest priority
// first. Tasks of equal priority keep their input order. The result may run
// past midnight; no wraparound is applied.
func LocalSchedule(tasks []model.PlannedTask, anchor model.Clock) []model.ScheduleBlock {
	blocks := make([]model.ScheduleBlock, 0, len(tasks))
	if len(tasks) == 0 {
		return blocks
	}

	ordered := make([]model.PlannedTask, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority.Rank() > ordered[j].Priority.Rank()
	})

	cursor := anchor
	for i, task := range ordered {
		duration := task.DurationMinutes
		if duration <= 0 {
			duration = DefaultDurationMinutes
		}
		end := cursor.Add(duration)
		blocks = append(blocks, model.ScheduleBlock{
			TaskID:          task.ID,
			Index:           i,
			Title:           task.Title,
			Start:           cursor,
			End:             end,
			DurationMinutes: duration,
		})
		cursor = end
	}
	return blocks
}
