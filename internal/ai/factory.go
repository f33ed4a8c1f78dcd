package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// NewClient creates the provider client named in cfg. When
// cfg.RequestsPerMinute is positive, calls are throttled to that rate.
func NewClient(cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "":
		client, err = newOpenAIClient(cfg)
	case ProviderAnthropic:
		client, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerMinute > 0 {
		client = WithRateLimit(client, cfg.RequestsPerMinute)
	}
	return client, nil
}

// rateLimitedClient holds back calls so the provider quota is not exceeded.
type rateLimitedClient struct {
	Client
	limiter *rate.Limiter
}

// WithRateLimit wraps c with a token bucket of requestsPerMinute tokens.
func WithRateLimit(c Client, requestsPerMinute int) Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return &rateLimitedClient{
		Client:  c,
		limiter: rate.NewLimiter(rate.Every(every), requestsPerMinute),
	}
}

func (c *rateLimitedClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return c.Client.Complete(ctx, systemPrompt, userMessage)
}
