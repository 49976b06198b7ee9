package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// NewsAPI queries the newsapi.org "everything" endpoint.
type NewsAPI struct {
	baseURL  string
	apiKey   string
	pageSize int
}

func NewNewsAPI(baseURL, apiKey string, pageSize int) *NewsAPI {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	return &NewsAPI{baseURL: baseURL, apiKey: apiKey, pageSize: pageSize}
}

func (n *NewsAPI) Name() string { return "newsapi" }

func (n *NewsAPI) NewRequest(ctx context.Context, q Query) (*http.Request, error) {
	lang := "en"
	if NormalizeLanguage(q.Language) == LangKorean {
		lang = "ko"
	}

	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("pageSize", strconv.Itoa(n.pageSize))
	params.Set("language", lang)
	params.Set("sortBy", "relevancy")

	req, err := newGet(ctx, n.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", n.apiKey)
	return req, nil
}

func (n *NewsAPI) Decode(body []byte) ([]any, error) {
	return decodeJSON(body)
}
