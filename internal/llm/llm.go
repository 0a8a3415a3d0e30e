// Package llm wraps the chat-completion providers used to draft scripts.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned when a provider answers without text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Prompt is a single-shot instruction.
type Prompt struct {
	System string
	User   string
}

// Client completes a prompt synchronously.
type Client interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string
	MaxTokens  int64
	MaxRetries int
}

// New builds the client for cfg.Provider.
func New(cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm: missing api key for provider %q", cfg.Provider)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg), nil
	case "anthropic":
		return NewAnthropic(cfg), nil
	case "compatible":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm: compatible provider needs a base url")
		}
		return NewCompatible(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

func firstText(provider, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", provider, ErrEmptyResponse)
	}
	return text, nil
}
