package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smart-planner/internal/ai"
	"smart-planner/internal/model"
	"smart-planner/internal/planner"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDuration
	stageDeadline
	stagePriority
	stagePreferredTime
)

type conversationState struct {
	stage      conversationStage
	draft      model.TaskDraft
	suggestion ai.PrioritySuggestion
}

type confirmationRequest struct {
	taskID string
}

const (
	cbTogglePrefix = "toggle:"
	cbDeletePrefix = "delete:"
)

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.session(ctx, msg.From); err != nil {
		return err
	}
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty. What should the task be called?", cancelKeyboard())
		}
		state.draft.Title = text
		state.stage = stageDuration
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏱ <b>Step 2:</b> how long will it take? Minutes or a duration like <code>1h30m</code>.", durationKeyboard())
	case stageDuration:
		minutes, err := parseDurationInput(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "I need a positive duration, e.g. <code>45</code> or <code>1.5h</code>.", durationKeyboard())
		}
		state.draft.DurationMinutes = minutes
		state.stage = stageDeadline
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ <b>Step 3:</b> deadline as <code>2026-11-30</code> (or skip).", skipKeyboard())
	case stageDeadline:
		if !isSkipInput(text) {
			parsed, err := time.ParseInLocation("2006-01-02", text, time.Local)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2026-11-30</code> or skip.", skipKeyboard())
			}
			state.draft.Deadline = &parsed
		}
		state.suggestion = b.deps.Priority.Suggest(ctx, state.draft.Title, state.draft.Deadline)
		state.stage = stagePriority
		source := "heuristic"
		if state.suggestion.AIGenerated {
			source = "AI"
		}
		prompt := fmt.Sprintf("🎯 <b>Step 4:</b> priority?\nSuggested (%s): <b>%s</b>. %s",
			source, state.suggestion.Priority, escape(state.suggestion.Reasoning))
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, priorityKeyboard(state.suggestion.Priority))
	case stagePriority:
		priority, err := parsePriorityInput(text, state.suggestion.Priority)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick high, medium or low.", priorityKeyboard(state.suggestion.Priority))
		}
		state.draft.Priority = priority
		state.stage = stagePreferredTime
		return b.sendWithReplyMarkup(msg.Chat.ID, "🕒 <b>Step 5:</b> preferred start time as <code>HH:MM</code> (or skip).", skipKeyboard())
	case stagePreferredTime:
		if !isSkipInput(text) {
			at, err := model.ParseClock(text)
			if err != nil || at >= 24*60 {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Use <code>HH:MM</code>, e.g. <code>17:30</code>, or skip.", skipKeyboard())
			}
			state.draft.PreferredTime = at.String()
		}
		err := b.finishTaskCreation(ctx, msg.From, state.draft, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Try again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, draft model.TaskDraft, chatID int64) error {
	sess, err := b.session(ctx, from)
	if err != nil {
		return err
	}

	task, err := sess.AddTask(ctx, draft)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not add the task: %s", escape(err.Error())))
	}

	log.Printf("[info] task added id=%s user=%d sync=%s", task.ID, sess.UserID(), task.Sync)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task added</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(normalizeTitle(task.Title))))
	summary.WriteString(fmt.Sprintf("• <b>Duration:</b> %s\n", formatMinutes(task.DurationMinutes)))
	summary.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	if task.Deadline != nil {
		summary.WriteString(fmt.Sprintf("• <b>Deadline:</b> %s\n", task.Deadline.Format("2006-01-02")))
	}
	if task.PreferredTime != "" {
		summary.WriteString(fmt.Sprintf("• <b>Preferred time:</b> %s\n", task.PreferredTime))
	}
	if task.Sync == model.SyncFailed {
		summary.WriteString("⚠️ Saved on this device only, I will retry syncing it.\n")
	}

	if err := b.sendTextWithRemove(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(chatID, sess)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}
	log.Printf("[info] list tasks for user=%d", sess.UserID())
	return b.sendTaskList(msg.Chat.ID, sess)
}

func (b *Bot) sendTaskList(chatID int64, sess *planner.Session) error {
	tasks := sess.Tasks(planner.Filter{})
	if len(tasks) == 0 {
		return b.sendText(chatID, "No tasks yet. Add one with /newtask.")
	}

	now := time.Now()
	total, completed := sess.Counts()

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Tasks</b> · %d/%d done (%d%%)\n\n",
		completed, total, planner.CompletionPercentage(completed, total)))

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(formatTask(task, now))

		toggle := fmt.Sprintf("✅ %s", shortTitle(task.Title, 22))
		if task.Completed {
			toggle = fmt.Sprintf("↩️ %s", shortTitle(task.Title, 22))
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggle, cbTogglePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleSetStatus(ctx context.Context, msg *tgbotapi.Message, status model.Status) error {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Give me the task id: /%s 12", msg.Command()))
	}
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}

	tr, ok, err := sess.SetStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if !ok {
		return b.sendText(msg.Chat.ID, "Task not found.")
	}
	return b.reportTransition(msg.Chat.ID, sess, tr)
}

func (b *Bot) reportTransition(chatID int64, sess *planner.Session, tr planner.Transition) error {
	task, _ := sess.Task(tr.ID)
	title := escape(normalizeTitle(task.Title))
	log.Printf("[info] task status id=%s user=%d %s->%s", tr.ID, sess.UserID(), tr.From, tr.To)

	switch {
	case tr.From == tr.To && tr.To == model.StatusCompleted:
		return b.sendText(chatID, fmt.Sprintf("«%s» is already done.", title))
	case tr.From == tr.To:
		return b.sendText(chatID, fmt.Sprintf("«%s» is already open.", title))
	case tr.Completes():
		return b.sendText(chatID, fmt.Sprintf("✅ «%s» done. Progress: %d%%", title, sess.Percentage()))
	default:
		return b.sendText(chatID, fmt.Sprintf("↩️ «%s» is open again.", title))
	}
}

// handleDelete removes a task right away.
func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		return b.sendText(msg.Chat.ID, "Give me the task id: /delete 12")
	}
	sess, err := b.session(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.deleteTask(ctx, msg.Chat.ID, sess, id)
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, sess *planner.Session, id string) error {
	task, ok := sess.Task(id)
	removed, err := sess.RemoveTask(ctx, id)
	if err != nil {
		return err
	}
	if !ok || !removed {
		return b.sendText(chatID, "Task not found or already deleted.")
	}
	log.Printf("[info] task deleted id=%s user=%d", task.ID, sess.UserID())
	return b.sendText(chatID, fmt.Sprintf("🗑 «%s» deleted.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		id := strings.TrimPrefix(data, cbTogglePrefix)
		log.Printf("[info] callback toggle user=%d task=%s", cb.From.ID, id)
		sess, err := b.session(ctx, cb.From)
		if err != nil {
			return err
		}
		tr, ok, err := sess.Toggle(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return b.sendText(cb.Message.Chat.ID, "Task not found or already deleted.")
		}
		if err := b.reportTransition(cb.Message.Chat.ID, sess, tr); err != nil {
			return err
		}
		return b.sendTaskList(cb.Message.Chat.ID, sess)
	case strings.HasPrefix(data, cbDeletePrefix):
		id := strings.TrimPrefix(data, cbDeletePrefix)
		log.Printf("[info] callback delete request user=%d task=%s", cb.From.ID, id)
		return b.askDeleteConfirmation(ctx, cb.Message.Chat.ID, cb.From, id)
	default:
		return nil
	}
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, id string) error {
	sess, err := b.session(ctx, from)
	if err != nil {
		return err
	}
	task, ok := sess.Task(id)
	if !ok {
		return b.sendText(chatID, "Task not found or already deleted.")
	}

	text := fmt.Sprintf("Delete «%s»?", escape(normalizeTitle(task.Title)))
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		sess, err := b.session(ctx, msg.From)
		if err != nil {
			return err
		}
		if err := b.deleteTask(ctx, msg.Chat.ID, sess, req.taskID); err != nil {
			return err
		}
		return b.sendTaskList(msg.Chat.ID, sess)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Kept it.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}
