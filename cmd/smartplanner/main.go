package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-planner/internal/ai"
	"smart-planner/internal/bot"
	"smart-planner/internal/config"
	"smart-planner/internal/repository"
	"smart-planner/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	aiCfg := ai.Config{APIKey: cfg.GeminiAPIKey, MinInterval: cfg.AIMinInterval}
	if cfg.GeminiModel != "" {
		aiCfg.Models = append([]string{cfg.GeminiModel}, ai.DefaultModels...)
	}
	aiClient := ai.NewClient(aiCfg)
	if !aiClient.Enabled() {
		log.Println("[info] GEMINI_API_KEY not set, schedules fall back to the local planner")
	}
	aiCache := ai.NewCache(cfg.CacheTTL)

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	prefsRepo := repository.NewPreferencesRepository(db)

	taskSvc := service.NewTaskService(taskRepo)
	prefsSvc := service.NewPreferencesService(prefsRepo)
	deps := bot.Deps{
		Users:     userRepo,
		Tasks:     taskSvc,
		Schedules: service.NewScheduleService(taskSvc, repository.NewScheduleRepository(db), prefsSvc, aiClient),
		Streaks:   service.NewStreakService(repository.NewStreakRepository(db)),
		Priority:  service.NewPriorityService(aiClient, aiCache),
		History:   service.NewHistoryService(repository.NewHistoryRepository(db)),
		Prefs:     prefsSvc,
		Reminder:  service.NewReminderService(),
		Coach:     service.NewCoachService(aiClient, taskSvc, aiCache),
	}

	telegramBot, err := bot.New(cfg.TelegramToken, deps, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	sendReports := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("report: %v", err)
		}
	}

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleDaily(cfg.DailyReportTime, sendReports); err != nil {
		log.Fatalf("schedule daily report: %v", err)
	}
	if cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, sendReports); err != nil {
			log.Fatalf("schedule reports: %v", err)
		}
	}
	if _, err := scheduler.ScheduleInterval(time.Minute, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		telegramBot.SyncSessions(jobCtx)
	}); err != nil {
		log.Fatalf("schedule sync: %v", err)
	}
	if _, err := scheduler.ScheduleInterval(cfg.CacheTTL, func() {
		if n := aiCache.Purge(); n > 0 {
			log.Printf("[info] purged %d cached ai answers", n)
		}
	}); err != nil {
		log.Fatalf("schedule cache purge: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Smart planner bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
