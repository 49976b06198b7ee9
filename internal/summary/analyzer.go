package summary

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/deusflow/crednews/internal/logger"
	"github.com/deusflow/crednews/internal/news"
)

// Where an analysis came from.
const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Enricher fills article bodies from their pages.
type Enricher interface {
	EnrichAll(ctx context.Context, articles []news.Article) []news.Article
}

// Analysis is the summary attached to an ingestion cycle.
type Analysis struct {
	Summary string `json:"summary"`
	Source  string `json:"source"`
}

// Analyzer enriches articles, asks the remote summarizer for per-article and
// combined summaries, and falls back to the local digest whenever the remote
// side yields nothing.
type Analyzer struct {
	remote      Summarizer
	enricher    Enricher
	digest      *Digest
	concurrency int
	log         logger.Logger
}

// NewAnalyzer wires the stages. remote and enricher may be nil.
func NewAnalyzer(remote Summarizer, enricher Enricher, digest *Digest, concurrency int, log logger.Logger) *Analyzer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Analyzer{
		remote:      remote,
		enricher:    enricher,
		digest:      digest,
		concurrency: concurrency,
		log:         log,
	}
}

// Analyze returns the analysis plus the articles with any fetched content
// and per-article summaries attached. It fails only for an empty input.
func (a *Analyzer) Analyze(ctx context.Context, articles []news.Article) (Analysis, []news.Article, error) {
	if len(articles) == 0 {
		return Analysis{}, nil, ErrNoArticles
	}

	enriched := articles
	if a.enricher != nil {
		enriched = a.enricher.EnrichAll(ctx, articles)
	}

	if a.remote == nil {
		return a.fallback(enriched)
	}

	summarized := a.summarizeEach(ctx, enriched)

	var combined strings.Builder
	for _, art := range summarized {
		if art.Summary == "" {
			continue
		}
		combined.WriteString("Title: " + art.Title + "\nSummary: " + art.Summary + "\n\n")
	}
	if combined.Len() == 0 {
		a.log.Warn("No article summaries generated, using fallback digest")
		return a.fallback(summarized)
	}

	final, err := a.remote.Summarize(ctx, combined.String(), FinalOptions)
	if err != nil {
		a.log.Warn("Final summary failed, using fallback digest", logger.Error(err))
		return a.fallback(summarized)
	}

	return Analysis{Summary: final, Source: SourceRemote}, summarized, nil
}

// summarizeEach attaches a remote summary to every article that has text.
// Failures leave that article without a summary.
func (a *Analyzer) summarizeEach(ctx context.Context, articles []news.Article) []news.Article {
	out := make([]news.Article, len(articles))
	copy(out, articles)

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i := range out {
		text := out[i].Content
		if text == "" {
			text = out[i].Description
		}
		if text == "" {
			continue
		}
		g.Go(func() error {
			s, err := a.remote.Summarize(ctx, text, ArticleOptions)
			if err != nil {
				a.log.Debug("Article summary failed", logger.String("url", out[i].URL), logger.Error(err))
				return nil
			}
			out[i].Summary = s
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (a *Analyzer) fallback(articles []news.Article) (Analysis, []news.Article, error) {
	text, err := a.digest.Summarize(articles)
	if err != nil {
		return Analysis{}, nil, err
	}
	return Analysis{Summary: text, Source: SourceFallback}, articles, nil
}
