package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const maxReplyLength = 1500

// TaskSnapshot is what the suggestion prompt knows about the user's day.
type TaskSnapshot struct {
	Pending        int
	HighPriority   int
	Overdue        int
	CompletionRate int
	Clock          string
	Context        string
}

// Suggest asks for one short productivity tip for the current task state.
func (c *Client) Suggest(ctx context.Context, snap TaskSnapshot) (string, error) {
	var sb strings.Builder
	sb.WriteString("You are an AI productivity coach. Based on the user's current tasks and schedule, provide ONE personalized productivity tip.\n\n")
	sb.WriteString("Current context:\n")
	fmt.Fprintf(&sb, "- Total pending tasks: %d\n", snap.Pending)
	fmt.Fprintf(&sb, "- High priority tasks: %d\n", snap.HighPriority)
	fmt.Fprintf(&sb, "- Overdue tasks: %d\n", snap.Overdue)
	fmt.Fprintf(&sb, "- Current time: %s\n", snap.Clock)
	fmt.Fprintf(&sb, "- Completion rate: %d%%\n", snap.CompletionRate)
	if extra := strings.TrimSpace(snap.Context); extra != "" {
		fmt.Fprintf(&sb, "\nUser context: %s\n", extra)
	}
	sb.WriteString("\nProvide a brief, actionable suggestion (2-3 sentences max). Be specific and motivating.")

	text, err := c.Generate(ctx, sb.String())
	if err != nil {
		return "", err
	}
	return ParseReply(text)
}

const chatPrompt = `You are a friendly productivity assistant. Give short, practical advice about
focus, time management and task prioritization. Answer in at most five sentences.

User: %s

Assistant:`

// Chat answers a free-form productivity question.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	text, err := c.Generate(ctx, fmt.Sprintf(chatPrompt, message))
	if err != nil {
		return "", err
	}
	return ParseReply(text)
}

// ParseReply cleans a free-text answer. Code fences are stripped and long
// answers cut; an empty answer is malformed.
func ParseReply(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply", ErrMalformedPayload)
	}
	if runes := []rune(text); len(runes) > maxReplyLength {
		text = strings.TrimSpace(string(runes[:maxReplyLength])) + "…"
	}
	return text, nil
}

type Goal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

const goalsPrompt = `You are a productivity coach. Based on the user's profile, suggest 4 personalized productivity goals.

User Profile:
- Role: %s
- Daily working hours: %d hours

For each goal, provide:
1. A clear, actionable goal title (short)
2. A brief description of why it's important

Output ONLY valid JSON array like:
[{"title": "Goal title", "description": "Why this goal matters"}]

Make goals specific to their role and realistic for their schedule.`

// Goals asks for productivity goals that fit a role and a working day.
func (c *Client) Goals(ctx context.Context, role string, workHours int) ([]Goal, error) {
	text, err := c.Generate(ctx, fmt.Sprintf(goalsPrompt, role, workHours))
	if err != nil {
		return nil, err
	}
	return ParseGoals(text)
}

func ParseGoals(text string) ([]Goal, error) {
	data, err := extractArray(text)
	if err != nil {
		return nil, err
	}
	var goals []Goal
	if err := json.Unmarshal(data, &goals); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if len(goals) == 0 {
		return nil, fmt.Errorf("%w: no goals", ErrMalformedPayload)
	}
	for i := range goals {
		goals[i].Title = strings.TrimSpace(goals[i].Title)
		goals[i].Description = strings.TrimSpace(goals[i].Description)
		if goals[i].Title == "" {
			return nil, fmt.Errorf("%w: goal %d has no title", ErrMalformedPayload, i)
		}
	}
	return goals, nil
}
