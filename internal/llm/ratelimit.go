package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedClient spaces out structured generations so a shared API key
// stays under the vendor's per-minute quota. Chat turns are not limited.
type rateLimitedClient struct {
	Client
	limiter *rate.Limiter
}

// WithRateLimit wraps c so that at most perMinute structured generations start
// per minute. Callers block (respecting ctx) instead of being rejected.
func WithRateLimit(c Client, perMinute int) Client {
	return &rateLimitedClient{
		Client:  c,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (r *rateLimitedClient) GenerateStructured(ctx context.Context, req StructuredRequest) (ContentResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ContentResponse{}, fmt.Errorf("rate limiter: %w", err)
	}
	return r.Client.GenerateStructured(ctx, req)
}
