package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"smart-planner/internal/model"
)

type PrioritySuggestion struct {
	Priority    model.Priority
	Reasoning   string
	AIGenerated bool
}

// SuggestPriority asks the model to rate a task title and deadline.
func (c *Client) SuggestPriority(ctx context.Context, title string, deadline *time.Time, today time.Time) (PrioritySuggestion, error) {
	var sb strings.Builder
	sb.WriteString("Analyze this task and suggest a priority level (high, medium, or low).\n\n")
	sb.WriteString(fmt.Sprintf("Task: %s\n", title))
	if deadline != nil {
		sb.WriteString(fmt.Sprintf("Deadline: %s\n", deadline.Format("2006-01-02")))
		sb.WriteString(fmt.Sprintf("Days until deadline: %d\n", model.DaysBetween(today, *deadline)))
	} else {
		sb.WriteString("No deadline set\n")
	}
	sb.WriteString("\nConsider urgency, importance keywords and complexity.\n")
	sb.WriteString(`Output ONLY valid JSON: {"priority": "high|medium|low", "reasoning": "one sentence"}`)

	text, err := c.Generate(ctx, sb.String())
	if err != nil {
		return PrioritySuggestion{}, err
	}
	return ParsePriority(text)
}

func ParsePriority(text string) (PrioritySuggestion, error) {
	data, err := extractObject(text)
	if err != nil {
		return PrioritySuggestion{}, err
	}
	var payload struct {
		Priority  string `json:"priority"`
		Reasoning string `json:"reasoning"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return PrioritySuggestion{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	p, err := model.ParsePriority(payload.Priority)
	if err != nil {
		return PrioritySuggestion{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return PrioritySuggestion{
		Priority:    p,
		Reasoning:   strings.TrimSpace(payload.Reasoning),
		AIGenerated: true,
	}, nil
}
