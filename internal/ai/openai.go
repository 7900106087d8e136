package ai

import (
	"context"
	"errors"

	"github.com/Skotchmaster/baseball_stats/internal/service"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel = openai.GPT4oMini

	temperature = 0.7
	maxTokens   = 500
)

// OpenAI produces player descriptions through the chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) *OpenAI {
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewOpenAIWithConfig allows a different base URL, e.g. a compatible gateway.
func NewOpenAIWithConfig(cfg openai.ClientConfig, model string) *OpenAI {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) Generate(ctx context.Context, system, prompt string) (*service.Generation, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("completion returned no choices")
	}

	return &service.Generation{
		Content:    resp.Choices[0].Message.Content,
		Model:      o.model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
