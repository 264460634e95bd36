// Package genai is the boundary to the external generative-text
// collaborator. The engine hands a prompt across and receives prose or a
// failure; it never interprets the prose.
package genai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion means the collaborator answered with no content.
var ErrEmptyCompletion = errors.New("empty completion from generator")

// Request is one prose-generation call.
type Request struct {
	// System sets the specialist's writing persona.
	System string
	// Prompt carries the rendered change context.
	Prompt string
	// MaxTokens bounds the response; zero means provider default.
	MaxTokens int
}

// Generator produces prose from a prompt. Implementations must be safe for
// concurrent use; the dispatcher calls them from pooled workers.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// OpenAIGenerator backs Generator with the OpenAI chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator for the given key and model.
func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Generate runs one chat completion. Context cancellation and deadlines are
// honored by the underlying HTTP client.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}

	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}
