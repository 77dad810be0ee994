package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// DefaultSubtaskMinutes stands in for a subtask the model left unestimated.
	DefaultSubtaskMinutes = 30
	maxSubtaskMinutes     = 8 * 60
	maxSubtasks           = 10
)

type Subtask struct {
	Title           string `json:"subtask"`
	DurationMinutes int    `json:"duration_minutes"`
}

const breakdownPrompt = `Break down this task into 3-5 actionable subtasks with time estimates.
For each subtask, provide a clear, specific title and estimated duration in minutes (be realistic).

Output ONLY valid JSON array like:
[{"subtask": "Subtask name", "duration_minutes": 30}]

Task to break down: `

// Breakdown asks the model to split a task into subtasks.
func (c *Client) Breakdown(ctx context.Context, title string) ([]Subtask, error) {
	text, err := c.Generate(ctx, breakdownPrompt+title)
	if err != nil {
		return nil, err
	}
	return ParseBreakdown(text)
}

// ParseBreakdown validates a subtask array. A missing estimate becomes
// DefaultSubtaskMinutes; an empty list is malformed so callers fall back.
func ParseBreakdown(text string) ([]Subtask, error) {
	data, err := extractArray(text)
	if err != nil {
		return nil, err
	}
	var raw []struct {
		Subtask         string   `json:"subtask"`
		DurationMinutes *float64 `json:"duration_minutes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no subtasks", ErrMalformedPayload)
	}
	if len(raw) > maxSubtasks {
		raw = raw[:maxSubtasks]
	}

	out := make([]Subtask, 0, len(raw))
	for i, r := range raw {
		title := strings.TrimSpace(r.Subtask)
		if title == "" {
			return nil, fmt.Errorf("%w: subtask %d has no title", ErrMalformedPayload, i)
		}
		minutes := DefaultSubtaskMinutes
		if r.DurationMinutes != nil {
			minutes = int(*r.DurationMinutes + 0.5)
		}
		if minutes <= 0 || minutes > maxSubtaskMinutes {
			return nil, fmt.Errorf("%w: subtask %d lasts %d minutes", ErrMalformedPayload, i, minutes)
		}
		out = append(out, Subtask{Title: title, DurationMinutes: minutes})
	}
	return out, nil
}
