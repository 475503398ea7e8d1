package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("PING_CHANNEL_LOGGING_ID", "100")
	t.Setenv("LOGGING_CHANNEL_ID", "101")
	t.Setenv("REACTION_LOG_CHANNEL_ID", "102")
	t.Setenv("COUNT_LOG_CHANNEL_ID", "103")
	t.Setenv("BAD_COUNTER_ROLE_ID", "200")
}

func TestLoad_AllRequiredVarsSet(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.DiscordToken)
	assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
	assert.Equal(t, "100", cfg.PingChannelID)
	assert.Equal(t, "101", cfg.LoggingChannelID)
	assert.Equal(t, "102", cfg.ReactionChannelID)
	assert.Equal(t, "103", cfg.CountLogChannelID)
	assert.Equal(t, "200", cfg.BadCounterRoleID)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "1340585194125660211", cfg.BoosterRoleID)
	assert.Empty(t, cfg.MutedRoleID)
	assert.Empty(t, cfg.GuildID)
	assert.Equal(t, 5*time.Hour, cfg.LocalTimezoneOffset)
	assert.True(t, cfg.CountdownTarget.Equal(time.Date(2026, 5, 26, 0, 0, 0, 0, time.UTC)))
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		skipEnv string
		wantErr string
	}{
		{"missing DISCORD_TOKEN", "DISCORD_TOKEN", "DISCORD_TOKEN is required"},
		{"missing DATABASE_URL", "DATABASE_URL", "DATABASE_URL is required"},
		{"missing REDIS_URL", "REDIS_URL", "REDIS_URL is required"},
		{"missing PING_CHANNEL_LOGGING_ID", "PING_CHANNEL_LOGGING_ID", "PING_CHANNEL_LOGGING_ID is required"},
		{"missing LOGGING_CHANNEL_ID", "LOGGING_CHANNEL_ID", "LOGGING_CHANNEL_ID is required"},
		{"missing REACTION_LOG_CHANNEL_ID", "REACTION_LOG_CHANNEL_ID", "REACTION_LOG_CHANNEL_ID is required"},
		{"missing COUNT_LOG_CHANNEL_ID", "COUNT_LOG_CHANNEL_ID", "COUNT_LOG_CHANNEL_ID is required"},
		{"missing BAD_COUNTER_ROLE_ID", "BAD_COUNTER_ROLE_ID", "BAD_COUNTER_ROLE_ID is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.skipEnv, "")

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLoad_NonPositiveLimits(t *testing.T) {
	for _, name := range []string{"PING_LIMIT", "TIME_FRAME", "SAVE_LIMIT", "SAVE_COOLDOWN_HOURS", "DECAY_DAYS", "LOCKOUT_HOURS", "LOCKOUT_LIMIT"} {
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(name, "0")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), name+" must be positive")
		})
	}
}

func TestLoad_InvalidNumber(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SAVE_LIMIT", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_CustomCountdownTarget(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COUNTDOWN_CHANNEL_ID", "300")
	t.Setenv("COUNTDOWN_TARGET", "2027-01-01T12:00:00Z")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.CountdownTarget.Equal(time.Date(2027, 1, 1, 12, 0, 0, 0, time.UTC)))
}

func TestConfig_CountingRules(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SAVE_LIMIT", "4")
	t.Setenv("SAVE_COOLDOWN_HOURS", "12")
	t.Setenv("DECAY_DAYS", "7")
	t.Setenv("LOCKOUT_HOURS", "6")
	t.Setenv("LOCKOUT_LIMIT", "2")
	t.Setenv("TIME_FRAME", "30")

	cfg, err := Load()
	require.NoError(t, err)

	rules := cfg.CountingRules()
	assert.Equal(t, 4, rules.SaveLimit)
	assert.Equal(t, 12*time.Hour, rules.SaveCooldown)
	assert.Equal(t, 7*24*time.Hour, rules.DecayAfter)
	assert.Equal(t, 6*time.Hour, rules.LockoutFor)
	assert.Equal(t, 2, rules.LockoutLimit)
	assert.Equal(t, 30*time.Second, cfg.PingWindow())
}
