package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"smart-planner/internal/ai"
	"smart-planner/internal/model"
)

// Coach is the AI side of the coaching features. *ai.Client implements it.
type Coach interface {
	Breakdown(ctx context.Context, title string) ([]ai.Subtask, error)
	Suggest(ctx context.Context, snap ai.TaskSnapshot) (string, error)
	Goals(ctx context.Context, role string, workHours int) ([]ai.Goal, error)
	Chat(ctx context.Context, message string) (string, error)
}

// Breakdown is a task split into subtasks.
type Breakdown struct {
	Task         string
	Subtasks     []ai.Subtask
	TotalMinutes int
	AIGenerated  bool
}

// Suggestion is one productivity tip plus the task state it was based on.
type Suggestion struct {
	Text        string
	Snapshot    ai.TaskSnapshot
	AIGenerated bool
}

// CoachService answers breakdown, suggestion, goal and chat requests. Every
// answer has a rule-based fallback, so the AI being down only changes the
// wording.
type CoachService struct {
	ai    Coach
	tasks *TaskService
	cache *ai.Cache
	now   func() time.Time
}

func NewCoachService(coach Coach, tasks *TaskService, cache *ai.Cache) *CoachService {
	if cache == nil {
		cache = ai.NewCache(0)
	}
	return &CoachService{ai: coach, tasks: tasks, cache: cache, now: time.Now}
}

// Breakdown splits a task into subtasks. Answers are cached per title.
func (s *CoachService) Breakdown(ctx context.Context, title string) (Breakdown, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Breakdown{}, fmt.Errorf("%w: empty title", model.ErrInvalidTask)
	}
	key := "breakdown:" + strings.ToLower(title)
	if v, ok := s.cache.Get(key); ok {
		return v.(Breakdown), nil
	}

	out := Breakdown{Task: title}
	if s.ai != nil {
		subtasks, err := s.ai.Breakdown(ctx, title)
		if err != nil {
			log.Printf("ai breakdown failed, using templates: %v", err)
		} else {
			out.Subtasks = subtasks
			out.AIGenerated = true
		}
	}
	if len(out.Subtasks) == 0 {
		out.Subtasks = HeuristicBreakdown(title)
	}
	for _, st := range out.Subtasks {
		out.TotalMinutes += st.DurationMinutes
	}

	s.cache.Set(key, out)
	return out, nil
}

var breakdownTemplates = []struct {
	words    []string
	subtasks []ai.Subtask
}{
	{
		words: []string{"write", "essay", "report", "document"},
		subtasks: []ai.Subtask{
			{Title: "Research and gather information", DurationMinutes: 30},
			{Title: "Create outline and structure", DurationMinutes: 15},
			{Title: "Write first draft", DurationMinutes: 45},
			{Title: "Review and edit", DurationMinutes: 20},
			{Title: "Final proofread and submit", DurationMinutes: 10},
		},
	},
	{
		words: []string{"code", "develop", "build", "implement", "program"},
		subtasks: []ai.Subtask{
			{Title: "Plan and design solution", DurationMinutes: 20},
			{Title: "Set up environment/dependencies", DurationMinutes: 15},
			{Title: "Implement core functionality", DurationMinutes: 45},
			{Title: "Test and debug", DurationMinutes: 25},
			{Title: "Review and refactor", DurationMinutes: 15},
		},
	},
	{
		words: []string{"study", "learn", "read"},
		subtasks: []ai.Subtask{
			{Title: "Preview material and set goals", DurationMinutes: 10},
			{Title: "Active study session 1", DurationMinutes: 25},
			{Title: "Take a short break", DurationMinutes: 5},
			{Title: "Active study session 2", DurationMinutes: 25},
			{Title: "Review and summarize key points", DurationMinutes: 15},
		},
	},
	{
		words: []string{"meeting", "present", "prepare"},
		subtasks: []ai.Subtask{
			{Title: "Define objectives and agenda", DurationMinutes: 15},
			{Title: "Gather necessary materials", DurationMinutes: 20},
			{Title: "Create presentation/notes", DurationMinutes: 30},
			{Title: "Practice and rehearse", DurationMinutes: 15},
		},
	},
}

// HeuristicBreakdown picks a subtask template from keywords in the title.
func HeuristicBreakdown(title string) []ai.Subtask {
	lower := strings.ToLower(title)
	for _, tpl := range breakdownTemplates {
		if containsAny(lower, tpl.words) {
			return append([]ai.Subtask(nil), tpl.subtasks...)
		}
	}
	return []ai.Subtask{
		{Title: "Plan approach for: " + title, DurationMinutes: 15},
		{Title: "Gather required resources", DurationMinutes: 10},
		{Title: "Work on main task", DurationMinutes: 40},
		{Title: "Review and finalize", DurationMinutes: 15},
	}
}

// Suggest returns a tip for the user's current backlog.
func (s *CoachService) Suggest(ctx context.Context, userID uint, extra string) (Suggestion, error) {
	stats, err := s.tasks.Stats(ctx, userID)
	if err != nil {
		return Suggestion{}, err
	}
	now := s.now()
	snap := ai.TaskSnapshot{
		Pending:        stats.Pending,
		HighPriority:   stats.PendingHigh,
		Overdue:        stats.Overdue,
		CompletionRate: stats.CompletionPercentage,
		Clock:          now.Format("03:04 PM"),
		Context:        strings.TrimSpace(extra),
	}

	out := Suggestion{Snapshot: snap}
	if s.ai != nil {
		text, err := s.ai.Suggest(ctx, snap)
		if err != nil {
			log.Printf("ai suggestion failed, using rules: %v", err)
		} else {
			out.Text = text
			out.AIGenerated = true
		}
	}
	if out.Text == "" {
		out.Text = HeuristicSuggestion(stats, now.Hour())
	}
	return out, nil
}

// HeuristicSuggestion picks a tip from the backlog, then from the time of day.
func HeuristicSuggestion(stats *TaskStats, hour int) string {
	switch {
	case stats.Overdue > 0:
		return fmt.Sprintf("⚠️ You have %d overdue %s! Tackle the most critical one first to reduce stress and build momentum.", stats.Overdue, plural(stats.Overdue, "task"))
	case stats.PendingHigh > 0:
		return fmt.Sprintf("🎯 You have %d high-priority %s waiting. Eat the frog: do the hardest one first while your energy is high!", stats.PendingHigh, plural(stats.PendingHigh, "task"))
	case stats.Pending == 0 && stats.Total > 0:
		return "🎉 All tasks completed! Take a well-deserved break or plan tomorrow while you have momentum."
	case stats.Pending > 5:
		return fmt.Sprintf("📋 You have %d tasks pending. Try the Pomodoro technique: 25 minutes of focus, then a 5-minute break. Start with just one task!", stats.Pending)
	case hour < 12:
		return "☀️ Morning is the best time for complex tasks. Tackle something challenging while your mind is fresh."
	case hour < 17:
		return "🌤️ Afternoon energy dip? Take a quick walk or stretch, then knock out a small task to rebuild momentum."
	default:
		return "🌙 Evening is great for planning. Review today's progress and set tomorrow's priorities."
	}
}

var roleGoals = map[string][]ai.Goal{
	"student": {
		{Title: "Maintain study schedule", Description: "Consistent study times improve retention and reduce stress"},
		{Title: "Balance academics and rest", Description: "Prevent burnout with proper breaks"},
		{Title: "Complete assignments early", Description: "Avoid last-minute stress and improve quality"},
		{Title: "Review notes daily", Description: "Reinforce learning through spaced repetition"},
	},
	"professional": {
		{Title: "Prioritize high-impact tasks", Description: "Focus on work that drives results"},
		{Title: "Maintain work-life boundaries", Description: "Protect personal time for sustainability"},
		{Title: "Block deep work sessions", Description: "Uninterrupted focus time for complex tasks"},
		{Title: "End-of-day planning", Description: "Review today and prepare for tomorrow"},
	},
	"freelancer": {
		{Title: "Track billable hours", Description: "Maximize income and identify time sinks"},
		{Title: "Set client boundaries", Description: "Protect your schedule from scope creep"},
		{Title: "Batch similar tasks", Description: "Reduce context switching overhead"},
		{Title: "Schedule admin time", Description: "Don't let invoicing and emails pile up"},
	},
}

// Goals recommends productivity goals for a role. Unknown roles get the
// professional set when the AI cannot answer.
func (s *CoachService) Goals(ctx context.Context, role string, workHours int) ([]ai.Goal, bool) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = "professional"
	}
	if workHours <= 0 || workHours > 24 {
		workHours = 8
	}
	key := fmt.Sprintf("goals:%s:%d", role, workHours)
	if v, ok := s.cache.Get(key); ok {
		return v.([]ai.Goal), true
	}

	if s.ai != nil {
		goals, err := s.ai.Goals(ctx, role, workHours)
		if err == nil {
			s.cache.Set(key, goals)
			return goals, true
		}
		log.Printf("ai goal recommendations failed, using presets: %v", err)
	}
	goals, ok := roleGoals[role]
	if !ok {
		goals = roleGoals["professional"]
	}
	return append([]ai.Goal(nil), goals...), false
}

var chatFallbacks = []struct {
	keyword string
	reply   string
}{
	{"productive", "Try the Pomodoro Technique: work for 25 minutes, then take a 5-minute break. It keeps focus up and prevents burnout!"},
	{"focus", "Minimize distractions by turning off notifications, and work in 90-minute focus blocks followed by short breaks."},
	{"overwhelm", "When you feel overwhelmed, start with your smallest task. Finishing it gives you momentum for the bigger ones!"},
	{"priorit", "Use the Eisenhower Matrix: sort tasks into urgent/important quadrants and work on the important ones first."},
	{"break", "Regular breaks matter. Step away from your desk, stretch or take a short walk to refresh your mind."},
}

const defaultChatReply = "Some quick productivity tips: break large tasks into smaller ones, set a specific goal for each work session, and review your progress at the end of the day."

// Chat answers a productivity question, falling back to canned advice.
func (s *CoachService) Chat(ctx context.Context, message string) (string, bool) {
	message = strings.TrimSpace(message)
	if s.ai != nil && message != "" {
		reply, err := s.ai.Chat(ctx, message)
		if err == nil {
			return reply, true
		}
		log.Printf("ai chat failed, using canned reply: %v", err)
	}
	return HeuristicChat(message), false
}

func HeuristicChat(message string) string {
	lower := strings.ToLower(message)
	for _, f := range chatFallbacks {
		if strings.Contains(lower, f.keyword) {
			return f.reply
		}
	}
	return defaultChatReply
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
