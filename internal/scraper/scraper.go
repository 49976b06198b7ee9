// Package scraper fetches article pages and extracts best-effort body text.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/deusflow/crednews/internal/logger"
	"github.com/deusflow/crednews/internal/news"
)

const maxPageBytes = 4 << 20

// Body containers tried in order; the first with more than minBlockRunes wins.
var bodySelectors = []string{
	"article",
	".article-content",
	".article-body",
	".story-content",
	".post-content",
	"main",
	`[role="main"]`,
	".content",
	"#content",
}

const (
	minBlockRunes     = 100
	minParagraphRunes = 50
)

type Options struct {
	Timeout     time.Duration
	Concurrency int
	MaxArticles int
	// RPS limits page fetches per second across all workers. Zero disables it.
	RPS       float64
	UserAgent string
}

type Scraper struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    Options
	log     logger.Logger
}

func New(opts Options, log logger.Logger) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; crednews/1.0)"
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}

	return &Scraper{
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: limiter,
		opts:    opts,
		log:     log,
	}
}

// FetchBody downloads pageURL and extracts its body text. ok is false when
// the page cannot be fetched or no usable text is found.
func (s *Scraper) FetchBody(ctx context.Context, pageURL string) (string, bool) {
	raw, err := s.download(ctx, pageURL)
	if err != nil {
		s.log.Debug("Page download failed", logger.String("url", pageURL), logger.Error(err))
		return "", false
	}

	text := ExtractBody(raw, pageURL)
	if text == "" {
		s.log.Debug("No body text found", logger.String("url", pageURL))
		return "", false
	}
	return text, true
}

// EnrichAll fills Content for up to MaxArticles articles that lack it,
// fetching pages concurrently. Articles whose page fails keep their fields.
// The input slice is not modified.
func (s *Scraper) EnrichAll(ctx context.Context, articles []news.Article) []news.Article {
	out := make([]news.Article, len(articles))
	copy(out, articles)

	limit := len(out)
	if s.opts.MaxArticles > 0 && s.opts.MaxArticles < limit {
		limit = s.opts.MaxArticles
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i := 0; i < limit; i++ {
		if out[i].Content != "" {
			continue
		}
		g.Go(func() error {
			if body, ok := s.FetchBody(gctx, out[i].URL); ok {
				out[i].Content = body
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *Scraper) download(ctx context.Context, pageURL string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

// ExtractBody runs the selector heuristics over an HTML page, then the
// paragraph fallback, then readability. It returns "" when nothing usable is
// found and never fails on malformed markup.
func ExtractBody(html []byte, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err == nil {
		doc.Find("script, style, noscript, nav, footer, header, aside").Remove()

		for _, selector := range bodySelectors {
			text := strings.TrimSpace(doc.Find(selector).Text())
			if utf8.RuneCountInString(text) > minBlockRunes {
				return CleanText(text)
			}
		}

		var paragraphs []string
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			text := strings.TrimSpace(p.Text())
			if utf8.RuneCountInString(text) > minParagraphRunes {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			return CleanText(strings.Join(paragraphs, "\n\n"))
		}
	}

	return readabilityText(html, pageURL)
}

func readabilityText(html []byte, pageURL string) string {
	u, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(html), u)
	if err != nil {
		return ""
	}
	return CleanText(article.TextContent)
}

// CleanText collapses every run of whitespace into a single space.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
