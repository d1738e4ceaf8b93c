package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-sonnet-20241022"

// AnthropicConfig contains configuration for the Anthropic client
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AnthropicClient calls the Anthropic Messages API through the official SDK.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic API client. SDK retries are disabled.
func NewAnthropicClient(config AnthropicConfig) *AnthropicClient {
	if config.Model == "" {
		config.Model = defaultAnthropicModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  config.Model,
	}
}

// Name implements Client.
func (a *AnthropicClient) Name() string { return "anthropic" }

// Complete implements Client.
func (a *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(req.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
		Temperature: anthropic.Float(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}
