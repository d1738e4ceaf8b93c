// Package llm talks to hosted language model providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"precision-medicine-server/internal/metrics"
)

// ErrNotConfigured is returned by New when no provider credential is set.
var ErrNotConfigured = errors.New("no language model provider configured")

// Request is one single-turn completion.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
	// JSONMode asks providers that support it to constrain output to a JSON object.
	JSONMode bool
}

// Client completes prompts against one provider.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Config selects and configures a provider.
type Config struct {
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Timeout bounds every completion call. Calls are attempted once.
	Timeout time.Duration
}

// New returns the first configured provider, in the order Anthropic, OpenAI, Gemini,
// wrapped with a timeout and a circuit breaker.
func New(cfg Config, m *metrics.Metrics) (Client, error) {
	var inner Client
	switch {
	case cfg.AnthropicAPIKey != "":
		inner = NewAnthropicClient(AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			BaseURL: cfg.AnthropicBaseURL,
		})
	case cfg.OpenAIAPIKey != "":
		inner = NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.Timeout,
		})
	case cfg.GeminiAPIKey != "":
		inner = NewGeminiClient(GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, ErrNotConfigured
	}
	return NewResilient(inner, ResilienceConfig{Timeout: cfg.Timeout}, m), nil
}
