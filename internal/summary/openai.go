package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI summarizes through the chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI accepts an empty key; the summarizer then reports ErrUnavailable.
func NewOpenAI(apiKey, model string) *OpenAI {
	s := &OpenAI{model: model}
	if apiKey != "" {
		s.client = openai.NewClient(apiKey)
	}
	return s
}

// NewOpenAIWithConfig is used to point the client at another base URL.
func NewOpenAIWithConfig(cfg openai.ClientConfig, model string) *OpenAI {
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (s *OpenAI) Name() string { return "openai" }

func (s *OpenAI) Summarize(ctx context.Context, text string, opts Options) (string, error) {
	if s.client == nil {
		return "", unavailable("openai API key is not set")
	}
	if strings.TrimSpace(text) == "" {
		return "", unavailable("empty input")
	}

	request := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					"You summarize news. Answer with a summary of %d to %d words and nothing else.",
					opts.MinLength, opts.MaxLength),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		MaxTokens:   opts.MaxLength * 2,
		Temperature: 0.2,
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", unavailable("chat completion: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", unavailable("no choices returned")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", unavailable("empty summary")
	}
	return out, nil
}
