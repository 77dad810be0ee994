package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"smart-planner/internal/model"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken   string
	DatabaseURL     string
	ReportInterval  time.Duration
	DailyReportTime string
	GeminiAPIKey    string
	GeminiModel     string
	AITimeout       time.Duration
	AIMinInterval   time.Duration
	CacheTTL        time.Duration
	ScheduleAnchor  model.Clock
}

// fileConfig mirrors the optional YAML file named by CONFIG_FILE. Every
// value there is overridden by the matching environment variable.
type fileConfig struct {
	TelegramToken       string `yaml:"telegram_token"`
	DatabaseURL         string `yaml:"database_url"`
	ReportIntervalHours string `yaml:"report_interval_hours"`
	DailyReportTime     string `yaml:"daily_report_time"`
	Gemini              struct {
		APIKey         string `yaml:"api_key"`
		Model          string `yaml:"model"`
		TimeoutSeconds string `yaml:"timeout_seconds"`
		MinInterval    string `yaml:"min_interval"`
		CacheTTL       string `yaml:"cache_ttl"`
	} `yaml:"gemini"`
	ScheduleAnchor string `yaml:"schedule_anchor"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	var file fileConfig
	if path := strings.TrimSpace(getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	value := func(env, fallback string) string {
		if v := strings.TrimSpace(getenv(env)); v != "" {
			return v
		}
		return strings.TrimSpace(fallback)
	}

	cfg := Config{
		TelegramToken:   value("TELEGRAM_TOKEN", file.TelegramToken),
		DatabaseURL:     value("DATABASE_URL", file.DatabaseURL),
		ReportInterval:  parseInterval(value("REPORT_INTERVAL_HOURS", file.ReportIntervalHours)),
		DailyReportTime: value("DAILY_REPORT_TIME", file.DailyReportTime),
		GeminiAPIKey:    value("GEMINI_API_KEY", file.Gemini.APIKey),
		GeminiModel:     value("GEMINI_MODEL", file.Gemini.Model),
		AITimeout:       parseSeconds(value("AI_TIMEOUT_SECONDS", file.Gemini.TimeoutSeconds)),
		AIMinInterval:   parseDuration(value("AI_MIN_INTERVAL", file.Gemini.MinInterval)),
		CacheTTL:        parseDuration(value("AI_CACHE_TTL", file.Gemini.CacheTTL)),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "smart_planner.db"
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	if cfg.DailyReportTime == "" {
		cfg.DailyReportTime = "08:00"
	}

	if cfg.AITimeout == 0 {
		cfg.AITimeout = 30 * time.Second
	}
	if cfg.AIMinInterval == 0 {
		cfg.AIMinInterval = 2 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	cfg.ScheduleAnchor = model.NewClock(9, 0)
	if raw := value("SCHEDULE_ANCHOR", file.ScheduleAnchor); raw != "" {
		anchor, err := model.ParseClock(raw)
		if err != nil {
			return cfg, fmt.Errorf("SCHEDULE_ANCHOR: %w", err)
		}
		cfg.ScheduleAnchor = anchor
	}

	if cfg.TelegramToken == "" {
		return cfg, errors.New("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseSeconds(raw string) time.Duration {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func parseDuration(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}
