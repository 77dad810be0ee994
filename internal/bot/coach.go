package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smart-planner/internal/ai"
	"smart-planner/internal/service"
)

// handleBreakdown splits the task named in the arguments into subtasks.
func (b *Bot) handleBreakdown(ctx context.Context, msg *tgbotapi.Message) error {
	title := strings.TrimSpace(msg.CommandArguments())
	if title == "" {
		return b.sendText(msg.Chat.ID, "Usage: /breakdown &lt;task&gt;, e.g. /breakdown Write thesis chapter")
	}
	res, err := b.deps.Coach.Breakdown(ctx, title)
	if err != nil {
		return b.sendText(msg.Chat.ID, "⚠️ "+escape(err.Error()))
	}
	return b.sendText(msg.Chat.ID, formatBreakdown(res))
}

// handleSuggest sends one productivity tip for the current backlog. Any
// argument text is passed along as extra context.
func (b *Bot) handleSuggest(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}
	res, err := b.deps.Coach.Suggest(ctx, sess.UserID(), msg.CommandArguments())
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, "💡 "+escape(res.Text)+aiMark(res.AIGenerated))
}

// handleGoals recommends goals for a role. Working hours default to the
// user's /prefs range.
func (b *Bot) handleGoals(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}
	role, hours := parseGoalsArgs(msg.CommandArguments())
	if hours == 0 {
		hours = 8
		if b.deps.Prefs != nil {
			if prefs, err := b.deps.Prefs.Get(ctx, sess.UserID()); err == nil {
				hours = prefs.Hours()
			}
		}
	}
	goals, fromAI := b.deps.Coach.Goals(ctx, role, hours)
	return b.sendText(msg.Chat.ID, formatGoals(role, hours, goals, fromAI))
}

// handleAsk forwards a free-form question to the assistant.
func (b *Bot) handleAsk(ctx context.Context, msg *tgbotapi.Message) error {
	question := strings.TrimSpace(msg.CommandArguments())
	if question == "" {
		return b.sendText(msg.Chat.ID, "Usage: /ask &lt;question&gt;, e.g. /ask how do I stay focused?")
	}
	reply, fromAI := b.deps.Coach.Chat(ctx, question)
	return b.sendText(msg.Chat.ID, "🤖 "+escape(reply)+aiMark(fromAI))
}

// parseGoalsArgs reads "<role> [hours]". A missing role means professional,
// missing or invalid hours come back as 0.
func parseGoalsArgs(args string) (string, int) {
	fields := strings.Fields(strings.ToLower(args))
	role := "professional"
	hours := 0
	for _, f := range fields {
		if n, err := strconv.Atoi(strings.TrimSuffix(f, "h")); err == nil {
			if n > 0 && n <= 24 {
				hours = n
			}
			continue
		}
		role = f
	}
	return role, hours
}

func formatBreakdown(res service.Breakdown) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🧩 <b>%s</b>\n", escape(res.Task)))
	for i, st := range res.Subtasks {
		builder.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, escape(st.Title), formatMinutes(st.DurationMinutes)))
	}
	builder.WriteString(fmt.Sprintf("\nAbout %s in total if you take one step at a time.", formatMinutes(res.TotalMinutes)))
	builder.WriteString(aiMark(res.AIGenerated))
	return builder.String()
}

func formatGoals(role string, hours int, goals []ai.Goal, fromAI bool) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🏆 <b>Goals for a %s, %dh a day</b>\n", escape(role), hours))
	for _, g := range goals {
		builder.WriteString("• <b>" + escape(g.Title) + "</b>")
		if g.Description != "" {
			builder.WriteString(": " + escape(g.Description))
		}
		builder.WriteString("\n")
	}
	return strings.TrimSpace(builder.String()) + aiMark(fromAI)
}

func aiMark(fromAI bool) string {
	if fromAI {
		return "\n<i>✨ AI</i>"
	}
	return ""
}

func formatDetailedStats(stats *service.TaskStats) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📅 Due today: %d of %d done\n", stats.DueTodayCompleted, stats.DueToday))
	if stats.Overdue > 0 {
		builder.WriteString(fmt.Sprintf("⏰ Overdue: %d\n", stats.Overdue))
	}
	if stats.AverageMinutes > 0 {
		builder.WriteString(fmt.Sprintf("⏱ Average task: %s\n", formatMinutes(stats.AverageMinutes)))
	}
	builder.WriteString(fmt.Sprintf("🚀 Productivity score: %d/100\n", stats.ProductivityScore))
	return builder.String()
}
