// Package provider adapts upstream news search APIs to the canonical article
// model: request building, payload decoding, record extraction and
// normalization.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// UserAgent is sent with every upstream request.
const UserAgent = "Mozilla/5.0 (compatible; crednews/1.0)"

// ErrParse marks an upstream payload that could not be decoded.
var ErrParse = errors.New("malformed upstream payload")

// Provider is one upstream news search API.
type Provider interface {
	Name() string
	// NewRequest builds the HTTP request for a single query.
	NewRequest(ctx context.Context, q Query) (*http.Request, error)
	// Decode turns a response body into raw article records.
	Decode(body []byte) ([]any, error)
}

// decodeJSON parses a JSON body and runs it through Extract.
func decodeJSON(body []byte) ([]any, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return Extract(payload), nil
}

func newGet(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
