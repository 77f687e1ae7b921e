package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Eino completes prompts through an eino chat model.
type Eino struct {
	model model.BaseChatModel
}

// NewEino creates the eino OpenAI chat model described by cfg.
func NewEino(ctx context.Context, cfg Config) (*Eino, error) {
	m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return WrapEino(m), nil
}

// WrapEino adapts an existing eino chat model.
func WrapEino(m model.BaseChatModel) *Eino {
	return &Eino{model: m}
}

// Complete sends prompt as a single user turn.
func (e *Eino) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := e.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(SystemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if msg == nil {
		return "", errors.New("generate: empty message")
	}
	return msg.Content, nil
}
