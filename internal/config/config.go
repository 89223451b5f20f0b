package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Config holds the configuration for the application.
type Config struct {
	AppEnv string
	Port   string

	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string

	// Outbound plan generations allowed per minute across all sessions.
	GenerationsPerMinute int

	DatabasePath  string
	SessionSecret string
	SessionTTL    time.Duration

	LogLevel  string
	LogFormat string
	SentryDSN string

	// Telegram Config (optional)
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
}

// NewFromEnv creates a new Config object from environment variables and an
// optional .env file in the working directory.
//
// A missing API key is not an error: the application still starts and the
// first generation attempt fails instead.
func NewFromEnv() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read .env file: %w", err)
		}
	}
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LLM_PROVIDER", ProviderGemini)
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GROQ_MODEL", "llama-3.3-70b-versatile")
	v.SetDefault("GENERATIONS_PER_MINUTE", 15)
	v.SetDefault("DATABASE_PATH", "data/fitlife.db")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	provider := strings.ToLower(v.GetString("LLM_PROVIDER"))
	if provider != ProviderGemini && provider != ProviderGroq {
		return nil, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderGroq, provider)
	}

	rpm := v.GetInt("GENERATIONS_PER_MINUTE")
	if rpm <= 0 {
		return nil, fmt.Errorf("GENERATIONS_PER_MINUTE must be positive, got %d", rpm)
	}

	ttl, err := time.ParseDuration(v.GetString("SESSION_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	allowed, err := parseIDList(v.GetString("TELEGRAM_ALLOW_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_IDS: %w", err)
	}

	return &Config{
		AppEnv:                 v.GetString("APP_ENV"),
		Port:                   v.GetString("PORT"),
		LLMProvider:            provider,
		GeminiAPIKey:           v.GetString("GEMINI_API_KEY"),
		GeminiModel:            v.GetString("GEMINI_MODEL"),
		GroqAPIKey:             v.GetString("GROQ_API_KEY"),
		GroqModel:              v.GetString("GROQ_MODEL"),
		GenerationsPerMinute:   rpm,
		DatabasePath:           v.GetString("DATABASE_PATH"),
		SessionSecret:          v.GetString("SESSION_SECRET"),
		SessionTTL:             ttl,
		LogLevel:               v.GetString("LOG_LEVEL"),
		LogFormat:              v.GetString("LOG_FORMAT"),
		SentryDSN:              v.GetString("SENTRY_DSN"),
		TelegramBotToken:       v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     v.GetString("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
	}, nil
}

// APIKey returns the key of the configured provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == ProviderGroq {
		return c.GroqAPIKey
	}
	return c.GeminiAPIKey
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
