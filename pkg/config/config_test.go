package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_ReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100500")
	t.Setenv("STRICT_TRANSITIONS", "true")
	t.Setenv("JWT_ACCESS_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.local, http://b.local")
	t.Setenv("TELEGRAM_WEBHOOK_SECRET", "s3cret")

	cfg := New()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, int64(-100500), cfg.Telegram.ChatID)
	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, "s3cret", cfg.Telegram.WebhookSecret)
	assert.True(t, cfg.Lifecycle.StrictTransitions)
	assert.Equal(t, 2*time.Hour, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.Server.AllowedOrigins)
}

func TestTelegramConfig_DisabledWithoutChat(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")

	cfg := New()

	assert.Equal(t, int64(0), cfg.Telegram.ChatID)
	assert.False(t, cfg.Telegram.Enabled())
}
