package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smart-planner/internal/model"
)

const (
	btnSkip          = "⏭️ Skip"
	btnConfirm       = "✅ Confirm"
	btnCancel        = "↩️ Cancel"
	btnCancelDialog  = "⏪ Stop input"
	btnSuggested     = "✨ Suggested"
	iconDefault      = "🟢"
	iconDue          = "⏳"
	iconOverdue      = "⚠️"
	iconDone         = "✅"
	menuLabelNewTask = "➕ New task"
	menuLabelTasks   = "📋 Tasks"
	menuLabelPlan    = "🗓 Schedule"
	menuLabelHelp    = "ℹ️ Help"
)

var errBadInput = errors.New("bot: unrecognized input")

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelPlan):
		return true, b.handleSchedule(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelPlan),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func durationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("15"),
			tgbotapi.NewKeyboardButton("30"),
			tgbotapi.NewKeyboardButton("60"),
			tgbotapi.NewKeyboardButton("90"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard(suggested model.Priority) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(fmt.Sprintf("%s (%s)", btnSuggested, suggested)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(string(model.PriorityHigh)),
			tgbotapi.NewKeyboardButton(string(model.PriorityMedium)),
			tgbotapi.NewKeyboardButton(string(model.PriorityLow)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop input"
}

// parseDurationInput reads plain minutes ("45") or a Go duration ("1h30m",
// "1.5h").
func parseDurationInput(text string) (int, error) {
	text = strings.TrimSpace(strings.ToLower(text))
	if n, err := strconv.Atoi(text); err == nil {
		if n <= 0 {
			return 0, errBadInput
		}
		return n, nil
	}
	d, err := time.ParseDuration(text)
	if err != nil || d < time.Minute {
		return 0, errBadInput
	}
	return int(math.Round(d.Minutes())), nil
}

// parsePriorityInput accepts a priority name or the suggestion button.
func parsePriorityInput(text string, suggested model.Priority) (model.Priority, error) {
	value := strings.TrimSpace(strings.ToLower(text))
	if strings.HasPrefix(value, strings.ToLower(btnSuggested)) || isSkipInput(value) {
		if suggested.IsValid() {
			return suggested, nil
		}
		return model.PriorityMedium, nil
	}
	p, err := model.ParsePriority(value)
	if err != nil {
		return "", errBadInput
	}
	return p, nil
}

func formatTask(task model.PlannedTask, now time.Time) string {
	var b strings.Builder
	icon := iconDefault
	switch {
	case task.Completed:
		icon = iconDone
	case task.Deadline != nil && now.After(task.Deadline.In(now.Location())):
		icon = iconOverdue
	case task.Deadline != nil && task.Deadline.Sub(now) <= 48*time.Hour:
		icon = iconDue
	}

	b.WriteString(fmt.Sprintf("%s <b>%s</b> %s · %s · %s\n", icon, displayID(task.ID),
		escape(normalizeTitle(task.Title)), formatMinutes(task.DurationMinutes), task.Priority))
	if task.Deadline != nil && !task.Completed {
		d := task.Deadline.In(now.Location())
		if now.After(d) {
			b.WriteString(fmt.Sprintf("   ⏰ Deadline: %s, <b>overdue</b>\n", d.Format("2006-01-02")))
		} else {
			daysLeft := int(d.Sub(now).Hours()/24) + 1
			b.WriteString(fmt.Sprintf("   ⏰ Deadline: %s · about %d days left\n", d.Format("2006-01-02"), daysLeft))
		}
	}
	if task.PreferredTime != "" {
		b.WriteString(fmt.Sprintf("   🕒 Preferred: %s\n", task.PreferredTime))
	}
	switch task.Sync {
	case model.SyncPending:
		b.WriteString("   🔄 Syncing\n")
	case model.SyncFailed:
		b.WriteString("   ⚠️ Not synced yet\n")
	}
	return b.String()
}

// displayID shows backend ids as "#12". Local ids are too long to type and
// are only reachable through the buttons.
func displayID(id string) string {
	if _, err := strconv.ParseUint(id, 10, 64); err == nil {
		return "#" + id
	}
	return "#new"
}

func formatMinutes(minutes int) string {
	switch {
	case minutes <= 0:
		return "?"
	case minutes < 60:
		return fmt.Sprintf("%dm", minutes)
	case minutes%60 == 0:
		return fmt.Sprintf("%dh", minutes/60)
	default:
		return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
	}
}

func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}

func priorityIcon(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴"
	case model.PriorityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
