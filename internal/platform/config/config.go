package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/pscheid92/countbot/internal/domain"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	DiscordToken string `env:"DISCORD_TOKEN"`
	GuildID      string `env:"GUILD_ID"` // empty registers commands globally

	BoosterRoleID    string `env:"EXTRA_BOOSTER_ROLE_ID" default:"1340585194125660211"`
	MutedRoleID      string `env:"MUTED_ROLE_ID"`
	BadCounterRoleID string `env:"BAD_COUNTER_ROLE_ID"`

	PingChannelID     string `env:"PING_CHANNEL_LOGGING_ID"`
	LoggingChannelID  string `env:"LOGGING_CHANNEL_ID"`
	ReactionChannelID string `env:"REACTION_LOG_CHANNEL_ID"`
	CountLogChannelID string `env:"COUNT_LOG_CHANNEL_ID"`

	PingLimit        int `env:"PING_LIMIT" default:"5"`
	TimeFrameSeconds int `env:"TIME_FRAME" default:"60"`

	SaveLimit         int `env:"SAVE_LIMIT" default:"3"`
	SaveCooldownHours int `env:"SAVE_COOLDOWN_HOURS" default:"24"`
	DecayDays         int `env:"DECAY_DAYS" default:"3"`
	LockoutHours      int `env:"LOCKOUT_HOURS" default:"24"`
	LockoutLimit      int `env:"LOCKOUT_LIMIT" default:"3"`

	CountdownChannelID string    `env:"COUNTDOWN_CHANNEL_ID"`
	CountdownTarget    time.Time `env:"COUNTDOWN_TARGET" default:"2026-05-26T00:00:00Z"`
	CountdownTitle     string    `env:"COUNTDOWN_TITLE" default:"Countdown"`

	LocalTimezoneOffset time.Duration `env:"LOCAL_TIMEZONE_OFFSET" default:"5h"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CountingRules converts the configured economy into domain rules.
func (c *Config) CountingRules() domain.Rules {
	return domain.Rules{
		SaveLimit:    c.SaveLimit,
		SaveCooldown: time.Duration(c.SaveCooldownHours) * time.Hour,
		DecayAfter:   time.Duration(c.DecayDays) * 24 * time.Hour,
		LockoutFor:   time.Duration(c.LockoutHours) * time.Hour,
		LockoutLimit: c.LockoutLimit,
	}
}

func (c *Config) PingWindow() time.Duration {
	return time.Duration(c.TimeFrameSeconds) * time.Second
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DISCORD_TOKEN":           cfg.DiscordToken,
		"DATABASE_URL":            cfg.DatabaseURL,
		"REDIS_URL":               cfg.RedisURL,
		"PING_CHANNEL_LOGGING_ID": cfg.PingChannelID,
		"LOGGING_CHANNEL_ID":      cfg.LoggingChannelID,
		"REACTION_LOG_CHANNEL_ID": cfg.ReactionChannelID,
		"COUNT_LOG_CHANNEL_ID":    cfg.CountLogChannelID,
		"BAD_COUNTER_ROLE_ID":     cfg.BadCounterRoleID,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	positive := []struct {
		name  string
		value int
	}{
		{"PING_LIMIT", cfg.PingLimit},
		{"TIME_FRAME", cfg.TimeFrameSeconds},
		{"SAVE_LIMIT", cfg.SaveLimit},
		{"SAVE_COOLDOWN_HOURS", cfg.SaveCooldownHours},
		{"DECAY_DAYS", cfg.DecayDays},
		{"LOCKOUT_HOURS", cfg.LockoutHours},
		{"LOCKOUT_LIMIT", cfg.LockoutLimit},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}

	if cfg.CountdownChannelID != "" && cfg.CountdownTarget.IsZero() {
		return errors.New("COUNTDOWN_TARGET must be set when COUNTDOWN_CHANNEL_ID is")
	}

	return nil
}
