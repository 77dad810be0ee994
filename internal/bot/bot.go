package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smart-planner/internal/config"
	"smart-planner/internal/model"
	"smart-planner/internal/planner"
	"smart-planner/internal/repository"
	"smart-planner/internal/service"
)

// Deps are the services the bot drives.
type Deps struct {
	Users     *repository.UserRepository
	Tasks     *service.TaskService
	Schedules *service.ScheduleService
	Streaks   *service.StreakService
	Priority  *service.PriorityService
	History   *service.HistoryService
	Prefs     *service.PreferencesService
	Reminder  *service.ReminderService
	Coach     *service.CoachService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api      *tgbotapi.BotAPI
	deps     Deps
	config   *config.Config
	sessions *planner.Sessions

	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, deps Deps, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		deps:          deps,
		config:        cfg,
		sessions:      planner.NewSessions(),
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Task input cancelled. Start again with /newtask.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		err := b.handleCommand(ctx, msg)
		if errors.Is(err, planner.ErrSessionClosed) {
			return b.sendText(msg.Chat.ID, "Your session has ended. Send /start to log in again.")
		}
		return err
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		log.Printf("[info] conversation step %d from %d", b.getConversation(msg.From.ID).stage, msg.From.ID)
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "logout":
		return b.handleLogout(msg)
	case "help":
		return b.handleHelp(msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "done":
		return b.handleSetStatus(ctx, msg, model.StatusCompleted)
	case "undo":
		return b.handleSetStatus(ctx, msg, model.StatusPending)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "schedule":
		return b.handleSchedule(ctx, msg)
	case "regenerate":
		return b.handleRegenerate(ctx, msg)
	case "streak":
		return b.handleStreak(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "newplan":
		return b.handleNewPlan(ctx, msg)
	case "history":
		return b.handleHistory(ctx, msg)
	case "prefs":
		return b.handlePrefs(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "breakdown":
		return b.handleBreakdown(ctx, msg)
	case "suggest":
		return b.handleSuggest(ctx, msg)
	case "goals":
		return b.handleGoals(ctx, msg)
	case "ask":
		return b.handleAsk(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Task input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	sess, err := b.login(ctx, msg.From)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	total, completed := sess.Counts()

	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I am your smart daily planner.</b>\n"+
			"You have %d tasks, %d done.\n\n"+
			"• /newtask to add a task\n"+
			"• /tasks to see and tick off tasks\n"+
			"• /schedule for today's timeline\n"+
			"• /help for everything else",
		escape(name), total, completed,
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleLogout(msg *tgbotapi.Message) error {
	b.clearConversation(msg.From.ID)
	b.clearConfirmation(msg.From.ID)
	if !b.sessions.Logout(msg.From.ID) {
		return b.sendText(msg.Chat.ID, "You are not logged in.")
	}
	log.Printf("[info] logout user=%d", msg.From.ID)
	return b.sendTextWithRemove(msg.Chat.ID, "👋 Logged out. Send /start to come back.")
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /newtask: add a task step by step\n" +
		"• /tasks: list tasks with done, undo and delete buttons\n" +
		"• /done &lt;id&gt;, /undo &lt;id&gt;: change a task status\n" +
		"• /delete &lt;id&gt;: remove a task\n" +
		"• /schedule: today's timeline\n" +
		"• /regenerate: ask the AI for a fresh plan\n" +
		"• /streak, /stats: your progress\n" +
		"• /newplan: archive today and start over\n" +
		"• /history: past plans\n" +
		"• /prefs &lt;start&gt; &lt;end&gt;: working hours, e.g. /prefs 08:00 17:00\n" +
		"• /report: today's summary now\n" +
		"• /breakdown &lt;task&gt;: split a task into steps\n" +
		"• /suggest [context]: one tip for right now\n" +
		"• /goals [role] [hours]: goals for student, professional or freelancer\n" +
		"• /ask &lt;question&gt;: productivity advice\n" +
		"• /logout, /cancel"
	return b.sendText(msg.Chat.ID, text)
}

// login opens a fresh session for the Telegram user and registers it,
// replacing any earlier one.
func (b *Bot) login(ctx context.Context, from *tgbotapi.User) (*planner.Session, error) {
	user, err := b.deps.Users.Login(ctx, from.ID, from.FirstName, from.LastName, from.UserName, time.Now())
	if err != nil {
		return nil, err
	}
	sess := b.openSession(ctx, user)
	b.sessions.Login(from.ID, sess)
	log.Printf("[info] login user=%d telegram=%d", user.ID, from.ID)
	return sess, nil
}

func (b *Bot) openSession(ctx context.Context, user *model.User) *planner.Session {
	opts := planner.Options{}
	anchor := planner.DefaultAnchor
	if b.config != nil {
		anchor = b.config.ScheduleAnchor
		opts.ScheduleTimeout = b.config.AITimeout
	}
	if b.deps.Prefs != nil {
		anchor = b.deps.Prefs.Anchor(ctx, user.ID, anchor)
	}
	opts.Anchor = &anchor
	backend := service.NewBackend(user.ID, b.deps.Tasks, b.deps.Schedules, b.deps.Streaks)
	sess := planner.NewSession(user.ID, backend, opts)
	sess.Open(ctx)
	return sess
}

// session returns the open session of the Telegram user, logging in on the
// first message.
func (b *Bot) session(ctx context.Context, from *tgbotapi.User) (*planner.Session, error) {
	if sess, ok := b.sessions.Get(from.ID); ok {
		return sess, nil
	}
	return b.login(ctx, from)
}

// SendDailyReports sends a summary to every known user. Users without an
// open session get a short-lived one.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.deps.Users.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sess, ok := b.sessions.Get(user.TelegramID)
		if !ok {
			u := user
			sess = b.openSession(ctx, &u)
		}
		text, err := b.deps.Reminder.DailySummary(ctx, user, sess, now)
		if !ok {
			sess.Close()
		}
		if err != nil {
			log.Printf("build summary for user %d: %v", user.TelegramID, err)
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			log.Printf("send summary to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

// SyncSessions retries failed writes of every open session.
func (b *Bot) SyncSessions(ctx context.Context) {
	b.sessions.Each(func(key int64, sess *planner.Session) {
		if err := sess.Sync(ctx); err != nil {
			log.Printf("sync session %d: %v", key, err)
		}
	})
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
