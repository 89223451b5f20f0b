package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Defaults", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, ProviderGemini, cfg.LLMProvider)
		assert.Equal(t, "gemini_key", cfg.GeminiAPIKey)
		assert.Equal(t, "gemini_key", cfg.APIKey())
		assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 15, cfg.GenerationsPerMinute)
		assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
		assert.Equal(t, "data/fitlife.db", cfg.DatabasePath)
		assert.Empty(t, cfg.TelegramAllowedUserIDs)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("MissingAPIKeyIsNotFatal", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Empty(t, cfg.APIKey())
	})

	t.Run("GroqProvider", func(t *testing.T) {
		setEnv("LLM_PROVIDER", "GROQ")
		setEnv("GROQ_API_KEY", "groq_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderGroq, cfg.LLMProvider)
		assert.Equal(t, "groq_key", cfg.APIKey())
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		setEnv("LLM_PROVIDER", "openai")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LLM_PROVIDER")
	})

	t.Run("AllowedUserIDs", func(t *testing.T) {
		setEnv("TELEGRAM_ALLOW_USER_IDS", "42, 7")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, []int64{42, 7}, cfg.TelegramAllowedUserIDs)
	})

	t.Run("InvalidAllowedUserIDs", func(t *testing.T) {
		setEnv("TELEGRAM_ALLOW_USER_IDS", "42,abc")

		_, err := NewFromEnv()
		require.Error(t, err)
	})

	t.Run("InvalidSessionTTL", func(t *testing.T) {
		setEnv("SESSION_TTL", "forever")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_TTL")
	})

	t.Run("NonPositiveRate", func(t *testing.T) {
		setEnv("GENERATIONS_PER_MINUTE", "0")

		_, err := NewFromEnv()
		require.Error(t, err)
	})
}
