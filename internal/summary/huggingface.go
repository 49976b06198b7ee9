package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HuggingFace calls a hosted inference endpoint of a summarization model
// such as facebook/bart-large-cnn.
type HuggingFace struct {
	modelURL string
	apiKey   string
	client   *http.Client
}

func NewHuggingFace(modelURL, apiKey string, timeout time.Duration) *HuggingFace {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HuggingFace{
		modelURL: modelURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (h *HuggingFace) Name() string { return "huggingface" }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type hfResult struct {
	SummaryText   string `json:"summary_text"`
	GeneratedText string `json:"generated_text"`
}

func (h *HuggingFace) Summarize(ctx context.Context, text string, opts Options) (string, error) {
	if h.apiKey == "" {
		return "", unavailable("huggingface API key is not set")
	}
	if strings.TrimSpace(text) == "" {
		return "", unavailable("empty input")
	}

	body, err := json.Marshal(hfRequest{
		Inputs:     text,
		Parameters: hfParameters{MaxLength: opts.MaxLength, MinLength: opts.MinLength},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.modelURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", unavailable("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", unavailable("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var results []hfResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", unavailable("decode response: %v", err)
	}
	if len(results) == 0 {
		return "", unavailable("empty response")
	}

	out := strings.TrimSpace(results[0].SummaryText)
	if out == "" {
		out = strings.TrimSpace(results[0].GeneratedText)
	}
	if out == "" {
		return "", unavailable("empty summary")
	}
	return out, nil
}
