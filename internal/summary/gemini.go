package summary

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const maxPromptRunes = 6000

// Gemini summarizes through the Google Generative AI API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini accepts an empty key; the summarizer then reports ErrUnavailable.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return &Gemini{model: model}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *Gemini) Summarize(ctx context.Context, text string, opts Options) (string, error) {
	if g.client == nil {
		return "", unavailable("gemini API key is not set")
	}

	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", unavailable("empty input")
	}
	if utf8.RuneCountInString(text) > maxPromptRunes {
		text = string([]rune(text)[:maxPromptRunes])
	}

	prompt := fmt.Sprintf(
		"Summarize the following news text in English. Use between %d and %d words. Reply with the summary only, no preamble.\n\n%s",
		opts.MinLength, opts.MaxLength, text)

	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", unavailable("generate content: %v", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", unavailable("no response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", unavailable("empty summary")
	}
	return out, nil
}
