package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/crednews/internal/news"
)

// GoogleNews queries the Google News RSS search feed.
type GoogleNews struct {
	baseURL string
	parser  *gofeed.Parser
}

func NewGoogleNews(baseURL string) *GoogleNews {
	return &GoogleNews{baseURL: baseURL, parser: gofeed.NewParser()}
}

func (g *GoogleNews) Name() string { return "googlenews" }

func (g *GoogleNews) NewRequest(ctx context.Context, q Query) (*http.Request, error) {
	hl, gl, ceid := "en-US", "US", "US:en"
	if NormalizeLanguage(q.Language) == LangKorean {
		hl, gl, ceid = "ko", "KR", "KR:ko"
	}

	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("hl", hl)
	params.Set("gl", gl)
	params.Set("ceid", ceid)

	req, err := newGet(ctx, g.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml")
	return req, nil
}

// Decode parses the feed and turns each item into a record keyed with the
// same aliases the JSON providers use.
func (g *GoogleNews) Decode(body []byte) ([]any, error) {
	feed, err := g.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	lang := feed.Language
	records := make([]any, 0, len(feed.Items))
	for _, item := range feed.Items {
		rec := map[string]any{
			"title":       item.Title,
			"link":        item.Link,
			"description": item.Description,
			"language":    lang,
		}
		if item.PublishedParsed != nil {
			rec["publishedAt"] = item.PublishedParsed.UTC().Format(news.TimeLayout)
		}
		if u, err := url.Parse(item.Link); err == nil {
			rec["domain"] = u.Hostname()
		}
		if item.Image != nil {
			rec["image"] = item.Image.URL
		}
		records = append(records, rec)
	}
	return records, nil
}
