package llm

import (
	"context"

	"fitlife-ai/internal/config"
)

// NewFromConfig builds the client of the configured provider, rate limited to
// cfg.GenerationsPerMinute. Without an API key it returns an unavailable
// client and ErrMissingAPIKey so the caller can log it and keep going.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Client, error) {
	if cfg.APIKey() == "" {
		return NewUnavailableClient(ErrMissingAPIKey), ErrMissingAPIKey
	}

	var client Client
	switch cfg.LLMProvider {
	case config.ProviderGroq:
		client = NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel)
	default:
		gemini, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return NewUnavailableClient(err), err
		}
		client = gemini
	}
	return WithRateLimit(client, cfg.GenerationsPerMinute), nil
}
