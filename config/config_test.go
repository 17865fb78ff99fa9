package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramBotToken)
	assert.Equal(t, 9, cfg.UpdateHour)
	assert.Equal(t, 0, cfg.UpdateMinute)
	assert.Equal(t, "file", cfg.StorageDriver)
	assert.Equal(t, "./data", cfg.StoragePath)
	assert.Equal(t, "IT", cfg.ITADCountry)
	assert.Empty(t, cfg.ITADAPIKey)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 1, cfg.Workers)
	assert.True(t, cfg.DailyUpdateEnabled())
	assert.True(t, cfg.ChatAllowed(42))
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("UPDATE_HOUR", "25")
	t.Setenv("UPDATE_MINUTE", "10")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("STORAGE_PATH", "/tmp/bot.db")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("WORKERS", "0")
	t.Setenv("TELEGRAM_ALLOWED_CHATS", "10,20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, "/tmp/bot.db", cfg.StoragePath)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 1, cfg.Workers)
	assert.False(t, cfg.DailyUpdateEnabled())
	assert.Equal(t, []int64{10, 20}, cfg.AllowedChats)
	assert.True(t, cfg.ChatAllowed(20))
	assert.False(t, cfg.ChatAllowed(30))
}

func TestLoadInvalidNumber(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("UPDATE_HOUR", "nove")

	_, err := Load()
	assert.Error(t, err)
}
