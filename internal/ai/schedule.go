package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"smart-planner/internal/model"
)

// TaskBrief is what the scheduling prompt knows about a task.
type TaskBrief struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	DurationHours float64 `json:"duration_hours"`
	Priority      string  `json:"priority"`
	Deadline      string  `json:"deadline,omitempty"`
	PreferredTime string  `json:"preferred_time,omitempty"`
}

// WorkHours bounds the day the model should plan.
type WorkHours struct {
	Start string
	End   string
}

type ScheduleItem struct {
	TaskID string `json:"task_id,omitempty"`
	Task   string `json:"task"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// ScheduleResult is a validated scheduling answer.
type ScheduleResult struct {
	Items  []ScheduleItem
	Review []string
}

const schedulingPrompt = `You are an intelligent daily planning assistant and productivity coach.

You receive a list of tasks with id, title, duration (hours), priority (high/medium/low),
deadline and, when set, a preferred time.

PART 1: build today's schedule.
1. If a task has "preferred_time", schedule it at or very close to that time.
2. Put high-priority tasks first and respect deadlines.
3. Respect task durations and never overlap time slots.
4. Working hours are %s-%s, but honor preferred times outside them.

PART 2: give 2-4 wellness tips that reference the actual tasks and times
(hydration before workouts, eye breaks after coding, breaks on heavy days).

Return only JSON in this format:
{
  "schedule": [{"task_id":"id","task":"Task name","start":"HH:MM","end":"HH:MM"}],
  "review": ["tip", "tip"]
}

Tasks to schedule:
`

// Schedule asks the model for a day plan. Payloads that do not match the
// expected shape are rejected with ErrMalformedPayload.
func (c *Client) Schedule(ctx context.Context, tasks []TaskBrief, hours WorkHours) (ScheduleResult, error) {
	if hours.Start == "" {
		hours.Start = model.DefaultWorkHoursStart
	}
	if hours.End == "" {
		hours.End = model.DefaultWorkHoursEnd
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("encode tasks: %w", err)
	}
	prompt := fmt.Sprintf(schedulingPrompt, hours.Start, hours.End) + string(data)

	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return ScheduleResult{}, err
	}
	return ParseSchedule(text)
}

// ParseSchedule reads either {"schedule": [...], "review": [...]} or a bare
// array of items out of model text and validates every item.
func ParseSchedule(text string) (ScheduleResult, error) {
	var (
		rawItems  []json.RawMessage
		rawReview []json.RawMessage
	)

	obj := strings.Index(text, "{")
	arr := strings.Index(text, "[")
	if arr >= 0 && (obj < 0 || arr < obj) {
		data, err := extractArray(text)
		if err != nil {
			return ScheduleResult{}, err
		}
		if err := json.Unmarshal(data, &rawItems); err != nil {
			return ScheduleResult{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
	} else {
		data, err := extractObject(text)
		if err != nil {
			return ScheduleResult{}, err
		}
		var envelope struct {
			Schedule *[]json.RawMessage `json:"schedule"`
			Review   []json.RawMessage  `json:"review"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return ScheduleResult{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		if envelope.Schedule != nil {
			rawItems = *envelope.Schedule
			rawReview = envelope.Review
		} else {
			rawItems = []json.RawMessage{json.RawMessage(data)}
		}
	}

	result := ScheduleResult{Items: make([]ScheduleItem, 0, len(rawItems))}
	for i, raw := range rawItems {
		item, err := parseItem(raw)
		if err != nil {
			return ScheduleResult{}, fmt.Errorf("%w: schedule item %d: %w", ErrMalformedPayload, i, err)
		}
		result.Items = append(result.Items, item)
	}
	for _, raw := range rawReview {
		var tip string
		if err := json.Unmarshal(raw, &tip); err != nil {
			continue
		}
		if tip = strings.TrimSpace(tip); tip != "" {
			result.Review = append(result.Review, tip)
		}
	}
	return result, nil
}

func parseItem(raw json.RawMessage) (ScheduleItem, error) {
	var item ScheduleItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return ScheduleItem{}, err
	}
	item.Task = strings.TrimSpace(item.Task)
	item.TaskID = strings.TrimSpace(item.TaskID)
	if item.Task == "" {
		return ScheduleItem{}, fmt.Errorf("missing task")
	}
	start, err := model.ParseClock(item.Start)
	if err != nil {
		return ScheduleItem{}, err
	}
	end, err := model.ParseClock(item.End)
	if err != nil {
		return ScheduleItem{}, err
	}
	if end < start {
		return ScheduleItem{}, fmt.Errorf("end %s before start %s", end, start)
	}
	item.Start, item.End = start.String(), end.String()
	return item, nil
}
