package llm

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// Compatible talks to any OpenAI-compatible endpoint (Groq, a local server).
type Compatible struct {
	client    *goopenai.Client
	model     string
	maxTokens int
}

func NewCompatible(cfg Config) *Compatible {
	conf := goopenai.DefaultConfig(cfg.APIKey)
	conf.BaseURL = cfg.BaseURL
	return &Compatible{
		client:    goopenai.NewClientWithConfig(conf),
		model:     cfg.Model,
		maxTokens: int(cfg.MaxTokens),
	}
}

func (c *Compatible) Complete(ctx context.Context, p Prompt) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: p.System},
			{Role: goopenai.ChatMessageRoleUser, Content: p.User},
		},
	})
	if err != nil {
		return "", fmt.Errorf("compatible API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("compatible: %w", ErrEmptyResponse)
	}
	return firstText("compatible", resp.Choices[0].Message.Content)
}
