package config

import (
	"os"
	"strings"
	"time"
)

// Config keeps runtime settings for the backend.
type Config struct {
	DatabaseURL   string
	TelegramToken string

	ReminderInterval          time.Duration
	ChallengeSweepInterval    time.Duration
	SubscriptionSweepInterval time.Duration

	CleanupTime     string
	EndOfDayTime    string
	MaintenanceTime string
}

// Load reads configuration from environment variables with sane defaults.
// TELEGRAM_TOKEN is optional; without it notifications are disabled.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),

		ReminderInterval:          parseDuration(os.Getenv("REMINDER_INTERVAL"), 5*time.Minute),
		ChallengeSweepInterval:    parseDuration(os.Getenv("CHALLENGE_SWEEP_INTERVAL"), 15*time.Minute),
		SubscriptionSweepInterval: parseDuration(os.Getenv("SUBSCRIPTION_SWEEP_INTERVAL"), 24*time.Hour),

		CleanupTime:     timeOrDefault(os.Getenv("CLEANUP_TIME"), "00:00"),
		EndOfDayTime:    timeOrDefault(os.Getenv("END_OF_DAY_TIME"), "23:59"),
		MaintenanceTime: timeOrDefault(os.Getenv("MAINTENANCE_TIME"), "01:00"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "admagh.db"
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func timeOrDefault(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	return raw
}
