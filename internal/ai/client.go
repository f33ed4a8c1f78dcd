// Package ai turns free-text messages into expense classifications using a
// chat-completion style language model.
package ai

import (
	"context"
	"net/http"
	"time"
)

// Client sends one system prompt and one user message to a model and
// returns the raw text of its reply.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
	// Name identifies the provider in logs.
	Name() string
}

// Config holds provider settings.
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerMinute int
	HTTPClient        *http.Client
}

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 300
)

func newHTTPClient(cfg Config) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
