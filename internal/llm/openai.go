package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI talks to the OpenAI chat completions API.
type OpenAI struct {
	client    *openai.Client
	model     openai.ChatModel
	maxTokens int64
}

func NewOpenAI(cfg Config) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	model := openai.ChatModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAI{client: &client, model: model, maxTokens: cfg.MaxTokens}
}

func (c *OpenAI) Complete(ctx context.Context, p Prompt) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System),
			openai.UserMessage(p.User),
		},
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(c.maxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return firstText("openai", resp.Choices[0].Message.Content)
}
