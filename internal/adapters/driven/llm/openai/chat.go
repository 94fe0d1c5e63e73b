// Package openai provides a chat service adapter backed by the OpenAI
// chat completions API.
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/llm"
	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/resilience"
)

// Ensure ChatService implements the interface.
var _ driven.ChatService = (*ChatService)(nil)

// Default configuration values.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.2
)

// Config holds configuration for the OpenAI chat service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Temperature controls sampling randomness (default: 0.2).
	Temperature float32

	// BaseURL overrides the API endpoint; used in tests.
	BaseURL string
}

// ChatService generates cited answers via the OpenAI API.
type ChatService struct {
	client      *openai.Client
	model       string
	temperature float32
	retry       resilience.RetryPolicy
}

// NewChatService creates a new OpenAI chat service.
func NewChatService(cfg Config) (*ChatService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &ChatService{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		retry:       resilience.GenerationRetry,
	}, nil
}

// Answer generates a cited answer for the question from the context
// pack.
func (s *ChatService) Answer(ctx context.Context, question, contextPack string) (string, error) {
	var resp openai.ChatCompletionResponse
	err := s.retry.Do(ctx, "answer", func() error {
		var apiErr error
		resp, apiErr = s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: llm.SystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: llm.UserMessage(question, contextPack)},
			},
			Temperature: s.temperature,
		})
		return apiErr
	})
	if err != nil {
		return "", domain.GenerationError("answer", err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.GenerationError("answer", fmt.Errorf("no choices returned"))
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the chat model in use.
func (s *ChatService) ModelName() string {
	return s.model
}
