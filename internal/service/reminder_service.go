package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"smart-planner/internal/model"
	"smart-planner/internal/planner"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct{}

func NewReminderService() *ReminderService {
	return &ReminderService{}
}

// DailySummary renders the user's day from an open session: the timeline
// the user would see, progress, streak and overdue tasks.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, sess *planner.Session, now time.Time) (string, error) {
	if sess == nil {
		return "", fmt.Errorf("no session for user %d", user.ID)
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Monday, 02 Jan 2006")))

	total, completed := sess.Counts()
	builder.WriteString(fmt.Sprintf("📊 Progress: %d/%d tasks done (%d%%)\n",
		completed, total, planner.CompletionPercentage(completed, total)))
	if streak, ok := sess.Streak(ctx); ok {
		builder.WriteString(FormatStreak(streak, now))
	}

	blocks, source := sess.Timeline()
	builder.WriteString(fmt.Sprintf("\n🗓 <b>Today's plan</b>%s\n", sourceLabel(source)))
	builder.WriteString(FormatTimeline(blocks, sess.Task))

	overdue := overdueTasks(sess.Tasks(planner.Filter{Status: model.StatusPending}), now)
	if len(overdue) > 0 {
		builder.WriteString("\n⚠️ <b>Overdue</b>\n")
		for _, t := range overdue {
			builder.WriteString(fmt.Sprintf("• %s (due %s)\n",
				html.EscapeString(t.Title), t.Deadline.In(now.Location()).Format("2006-01-02")))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// FormatTimeline lists blocks one per line. lookup reports task state so
// finished tasks get a check mark.
func FormatTimeline(blocks []model.ScheduleBlock, lookup func(id string) (model.PlannedTask, bool)) string {
	if len(blocks) == 0 {
		return "Nothing planned yet, add a task with /newtask\n"
	}
	var sb strings.Builder
	for _, b := range blocks {
		icon := "🔹"
		if b.TaskID != "" && lookup != nil {
			if t, ok := lookup(b.TaskID); ok && t.Completed {
				icon = "✅"
			}
		}
		sb.WriteString(fmt.Sprintf("%s %s-%s %s\n", icon, b.Start, b.End, html.EscapeString(b.Title)))
	}
	return sb.String()
}

func FormatStreak(streak model.Streak, now time.Time) string {
	switch streak.StatusOn(now) {
	case model.StreakActive:
		return fmt.Sprintf("🔥 Streak: %d days (best %d)\n", streak.CurrentStreak, streak.LongestStreak)
	case model.StreakAtRisk:
		return fmt.Sprintf("⏳ Streak: %d days, finish a task today to keep it\n", streak.CurrentStreak)
	default:
		return "💤 No active streak, complete a task to start one\n"
	}
}

func sourceLabel(src planner.Source) string {
	switch src {
	case planner.SourceAuthoritative:
		return " <i>(AI)</i>"
	case planner.SourceLocal:
		return " <i>(by priority)</i>"
	default:
		return ""
	}
}

func overdueTasks(tasks []model.PlannedTask, now time.Time) []model.PlannedTask {
	today := model.Day(now)
	var out []model.PlannedTask
	for _, t := range tasks {
		if t.Deadline != nil && t.Deadline.In(now.Location()).Before(today) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deadline.Before(*out[j].Deadline) })
	return out
}
