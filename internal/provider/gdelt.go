package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// GDELT queries the GDELT DOC 2.0 article list endpoint.
type GDELT struct {
	baseURL    string
	maxRecords int
}

func NewGDELT(baseURL string, maxRecords int) *GDELT {
	if maxRecords <= 0 {
		maxRecords = 50
	}
	return &GDELT{baseURL: baseURL, maxRecords: maxRecords}
}

func (g *GDELT) Name() string { return "gdelt" }

func (g *GDELT) NewRequest(ctx context.Context, q Query) (*http.Request, error) {
	lang := NormalizeLanguage(q.Language)

	params := url.Values{}
	params.Set("query", q.Text)
	params.Set("mode", "artlist")
	params.Set("format", "json")
	params.Set("maxrecords", strconv.Itoa(g.maxRecords))
	params.Set("lang", lang)
	params.Set("domain", "news")
	params.Set("sort", "relevancedesc")
	if lang == LangKorean {
		params.Set("country", "South Korea")
	}

	return newGet(ctx, g.baseURL+"?"+params.Encode())
}

func (g *GDELT) Decode(body []byte) ([]any, error) {
	return decodeJSON(body)
}
