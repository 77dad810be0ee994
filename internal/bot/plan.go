package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smart-planner/internal/model"
	"smart-planner/internal/planner"
	"smart-planner/internal/service"
)

func (b *Bot) handleSchedule(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}
	blocks, source := sess.Timeline()
	return b.sendText(msg.Chat.ID, formatSchedule(blocks, source, sess))
}

func (b *Bot) handleRegenerate(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}
	if err := b.sendText(msg.Chat.ID, "⏳ Planning your day..."); err != nil {
		return err
	}

	blocks, source, err := sess.Regenerate(ctx)
	if err != nil {
		return err
	}
	log.Printf("[info] regenerate user=%d source=%s blocks=%d", sess.UserID(), source, len(blocks))

	text := formatSchedule(blocks, source, sess)
	if source == planner.SourceLocal {
		text = "🤖 The AI planner is not available right now, here is a plan by priority.\n\n" + text
	}
	return b.sendText(msg.Chat.ID, text)
}

func formatSchedule(blocks []model.ScheduleBlock, source planner.Source, sess *planner.Session) string {
	var builder strings.Builder
	builder.WriteString("🗓 <b>Today's plan</b>")
	switch source {
	case planner.SourceAuthoritative:
		builder.WriteString(" <i>(AI)</i>")
	case planner.SourceLocal:
		builder.WriteString(" <i>(by priority)</i>")
	}
	builder.WriteString("\n\n")
	builder.WriteString(service.FormatTimeline(blocks, sess.Task))

	if len(blocks) > 0 {
		builder.WriteString("\n💡 <b>Tips</b>\n")
		for _, tip := range sess.Tips() {
			builder.WriteString(fmt.Sprintf("• %s\n", escape(tip)))
		}
	}
	return strings.TrimSpace(builder.String())
}

func (b *Bot) handleStreak(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}
	streak, ok := sess.Streak(ctx)
	if !ok {
		return b.sendText(msg.Chat.ID, "I cannot load your streak right now, try again later.")
	}

	var builder strings.Builder
	builder.WriteString(service.FormatStreak(streak, time.Now()))
	builder.WriteString(fmt.Sprintf("🏆 Longest: %d days\n", streak.LongestStreak))
	builder.WriteString(fmt.Sprintf("📅 Active days: %d", streak.TotalActiveDays))
	return b.sendText(msg.Chat.ID, builder.String())
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}

	total, completed := sess.Counts()
	var builder strings.Builder
	builder.WriteString("📊 <b>Stats</b>\n")
	builder.WriteString(fmt.Sprintf("%s %d%%\n", progressBar(sess.Percentage(), 10), sess.Percentage()))
	builder.WriteString(fmt.Sprintf("Done: %d of %d\n\n", completed, total))

	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		open := len(sess.Tasks(planner.Filter{Status: model.StatusPending, Priority: p}))
		builder.WriteString(fmt.Sprintf("%s %s: %d open\n", priorityIcon(p), p, open))
	}

	if stats, err := b.deps.Tasks.Stats(ctx, sess.UserID()); err != nil {
		log.Printf("detailed stats user=%d: %v", sess.UserID(), err)
	} else {
		builder.WriteString("\n" + formatDetailedStats(stats))
	}

	failed := 0
	for _, t := range sess.Tasks(planner.Filter{}) {
		if t.Sync == model.SyncFailed {
			failed++
		}
	}
	if failed > 0 {
		builder.WriteString(fmt.Sprintf("\n⚠️ %d changes are waiting to sync.", failed))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

// handleNewPlan archives the current day and clears every task.
func (b *Bot) handleNewPlan(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}

	now := time.Now()
	blocks, _ := sess.Timeline()
	total, completed := sess.Counts()
	if total > 0 {
		snap := service.Snapshot{Date: now, Total: total, Completed: completed, Blocks: blocks, Tips: sess.Tips()}
		if err := b.deps.History.Save(ctx, sess.UserID(), snap); err != nil {
			log.Printf("save history user=%d: %v", sess.UserID(), err)
		}
	}
	if err := b.deps.Schedules.Clear(ctx, sess.UserID()); err != nil {
		log.Printf("clear schedule user=%d: %v", sess.UserID(), err)
	}

	n, err := sess.NewPlan(ctx)
	if err != nil {
		return err
	}
	log.Printf("[info] new plan user=%d dropped=%d", sess.UserID(), n)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🧹 Cleared %d tasks and saved today to /history. Add new ones with /newtask.", n))
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}
	items, err := b.deps.History.Recent(ctx, sess.UserID(), 7)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load history: %s", escape(err.Error())))
	}
	if len(items) == 0 {
		return b.sendText(msg.Chat.ID, "No saved plans yet. /newplan archives the current day.")
	}

	var builder strings.Builder
	builder.WriteString("📜 <b>Recent plans</b>\n")
	for _, h := range items {
		builder.WriteString(fmt.Sprintf("• %s: %d/%d done (%d%%)\n",
			h.Date.Format("2006-01-02"), h.CompletedTasks, h.TotalTasks,
			planner.CompletionPercentage(h.CompletedTasks, h.TotalTasks)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handlePrefs(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		prefs, err := b.deps.Prefs.Get(ctx, sess.UserID())
		if err != nil {
			return err
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🕘 Working hours: %s-%s. Change them with /prefs 08:00 17:00",
			prefs.WorkHoursStart, prefs.WorkHoursEnd))
	}
	if len(args) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /prefs &lt;start&gt; &lt;end&gt;, e.g. /prefs 08:00 17:00")
	}

	prefs, err := b.deps.Prefs.SetWorkHours(ctx, sess.UserID(), args[0], args[1])
	if errors.Is(err, service.ErrInvalidHours) {
		return b.sendText(msg.Chat.ID, "Hours must be HH:MM with the start before the end.")
	}
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🕘 Working hours set to %s-%s. The local plan uses them after the next /start.",
		prefs.WorkHoursStart, prefs.WorkHoursEnd))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}
	user, err := b.deps.Users.FindByTelegramID(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	text, err := b.deps.Reminder.DailySummary(ctx, *user, sess, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the report: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}
