package service

import (
	"context"
	"log"
	"strings"
	"time"

	"smart-planner/internal/ai"
	"smart-planner/internal/model"
)

// PrioritySuggester rates a task. *ai.Client implements it.
type PrioritySuggester interface {
	SuggestPriority(ctx context.Context, title string, deadline *time.Time, today time.Time) (ai.PrioritySuggestion, error)
}

var (
	highKeywords = []string{"urgent", "asap", "important", "deadline", "meeting", "presentation", "exam", "interview", "client"}
	lowKeywords  = []string{"maybe", "someday", "optional", "nice to have", "when free", "later"}
)

// PriorityService suggests a priority for a new task. Answers are cached so
// the same title and deadline do not cost a second AI call.
type PriorityService struct {
	ai    PrioritySuggester
	cache *ai.Cache
	now   func() time.Time
}

func NewPriorityService(suggester PrioritySuggester, cache *ai.Cache) *PriorityService {
	if cache == nil {
		cache = ai.NewCache(0)
	}
	return &PriorityService{ai: suggester, cache: cache, now: time.Now}
}

func (s *PriorityService) Suggest(ctx context.Context, title string, deadline *time.Time) ai.PrioritySuggestion {
	key := "priority:" + strings.ToLower(strings.TrimSpace(title))
	if deadline != nil {
		key += ":" + deadline.Format("2006-01-02")
	}
	if v, ok := s.cache.Get(key); ok {
		return v.(ai.PrioritySuggestion)
	}

	today := s.now()
	var suggestion ai.PrioritySuggestion
	if s.ai != nil {
		res, err := s.ai.SuggestPriority(ctx, title, deadline, today)
		if err != nil {
			log.Printf("ai priority suggestion failed, using heuristic: %v", err)
		} else if res.Priority.IsValid() {
			suggestion = res
		}
	}
	if suggestion.Priority == "" {
		suggestion = HeuristicPriority(title, deadline, today)
	}

	s.cache.Set(key, suggestion)
	return suggestion
}

// HeuristicPriority rates a task from keywords in the title, then from how
// close the deadline is.
func HeuristicPriority(title string, deadline *time.Time, today time.Time) ai.PrioritySuggestion {
	lower := strings.ToLower(title)
	switch {
	case containsAny(lower, highKeywords):
		return ai.PrioritySuggestion{Priority: model.PriorityHigh, Reasoning: "Task contains urgency indicators"}
	case containsAny(lower, lowKeywords):
		return ai.PrioritySuggestion{Priority: model.PriorityLow, Reasoning: "Task appears to be optional or flexible"}
	case deadline != nil:
		days := model.DaysBetween(today, *deadline)
		switch {
		case days <= 1:
			return ai.PrioritySuggestion{Priority: model.PriorityHigh, Reasoning: "Deadline is imminent (within 24 hours)"}
		case days <= 3:
			return ai.PrioritySuggestion{Priority: model.PriorityMedium, Reasoning: "Deadline is approaching (within 3 days)"}
		default:
			return ai.PrioritySuggestion{Priority: model.PriorityLow, Reasoning: "Deadline is far enough to be flexible"}
		}
	default:
		return ai.PrioritySuggestion{Priority: model.PriorityMedium, Reasoning: "Standard task with no urgency indicators"}
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
