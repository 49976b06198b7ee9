package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/deusflow/crednews/internal/logger"
	"github.com/deusflow/crednews/internal/news"
	"github.com/deusflow/crednews/internal/storage"
	"github.com/deusflow/crednews/internal/summary"
)

// ErrNoArticles is returned by RunCycle when nothing survived filtering and
// the empty-result policy is "error".
var ErrNoArticles = errors.New("no articles found")

// Empty-result policies.
const (
	PolicyEmpty = "empty"
	PolicyError = "error"
)

// Fetcher produces the filtered articles of one cycle.
type Fetcher interface {
	Fetch(ctx context.Context) (FetchResult, error)
}

// Analyzer summarizes a non-empty article list.
type Analyzer interface {
	Analyze(ctx context.Context, articles []news.Article) (summary.Analysis, []news.Article, error)
}

// Store is the persistence the cycle writes to.
type Store interface {
	SaveArticle(ctx context.Context, a news.Article) (news.Article, error)
	SaveDailySummary(ctx context.Context, d storage.DailySummary) (storage.DailySummary, error)
}

// Publisher posts the daily digest somewhere outside the service.
type Publisher interface {
	Publish(ctx context.Context, d storage.DailySummary) error
}

// Recorder tracks cycle outcomes. *metrics.Metrics implements it.
type Recorder interface {
	AddStored(n int)
	ObserveSummary(source string)
	RecordCycle(duration time.Duration, articles int, err error)
}

type nopRecorder struct{}

func (nopRecorder) AddStored(int)                         {}
func (nopRecorder) ObserveSummary(string)                 {}
func (nopRecorder) RecordCycle(time.Duration, int, error) {}

// Result is what one ingestion cycle produced.
type Result struct {
	Articles []news.Article
	Analysis *summary.Analysis
	Daily    *storage.DailySummary
	Reports  []QueryReport
	Duration time.Duration
}

// ServiceOptions holds the cycle-level knobs.
type ServiceOptions struct {
	EmptyPolicy string
	Location    *time.Location
}

// Service runs ingestion cycles. Cycles never overlap.
type Service struct {
	fetcher   Fetcher
	analyzer  Analyzer
	store     Store
	publisher Publisher
	rec       Recorder
	opts      ServiceOptions
	log       logger.Logger
	now       func() time.Time

	mu sync.Mutex
}

// NewService wires a cycle. publisher and rec may be nil.
func NewService(fetcher Fetcher, analyzer Analyzer, store Store, publisher Publisher, rec Recorder, opts ServiceOptions, log logger.Logger) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.EmptyPolicy == "" {
		opts.EmptyPolicy = PolicyEmpty
	}
	return &Service{
		fetcher:   fetcher,
		analyzer:  analyzer,
		store:     store,
		publisher: publisher,
		rec:       rec,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// RunCycle fetches, orders, summarizes and persists one batch of articles.
// With the "empty" policy a cycle that finds nothing succeeds with an empty
// result and writes nothing.
func (s *Service) RunCycle(ctx context.Context) (res Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	defer func() {
		res.Duration = s.now().Sub(start)
		s.rec.RecordCycle(res.Duration, len(res.Articles), err)
	}()

	s.log.Info("Ingestion cycle started")

	fetched, err := s.fetcher.Fetch(ctx)
	res.Reports = fetched.Reports
	if err != nil {
		return res, fmt.Errorf("fetch: %w", err)
	}

	articles := news.DedupeAndSort(fetched.Articles)
	if len(articles) == 0 {
		s.log.Warn("No articles after filtering", logger.String("policy", s.opts.EmptyPolicy))
		if s.opts.EmptyPolicy == PolicyError {
			return res, ErrNoArticles
		}
		res.Articles = []news.Article{}
		return res, nil
	}

	analysis, articles, err := s.analyzer.Analyze(ctx, articles)
	if err != nil {
		return res, fmt.Errorf("analyze: %w", err)
	}
	s.rec.ObserveSummary(analysis.Source)
	res.Articles = articles
	res.Analysis = &analysis

	for _, a := range articles {
		if _, err := s.store.SaveArticle(ctx, a); err != nil {
			return res, err
		}
	}
	s.rec.AddStored(len(articles))

	daily, err := s.store.SaveDailySummary(ctx, storage.DailySummary{
		Date:         start.In(s.opts.Location).Format(time.DateOnly),
		ArticleCount: len(articles),
		SourceCount:  countSources(articles),
		Summary:      analysis.Summary,
	})
	if err != nil {
		return res, err
	}
	res.Daily = &daily

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, daily); err != nil {
			s.log.Warn("Failed to publish daily digest", logger.Error(err))
		}
	}

	s.log.Info("Ingestion cycle finished",
		logger.Int("articles", len(articles)),
		logger.Int("sources", daily.SourceCount),
		logger.String("summary_source", analysis.Source),
		logger.Duration("duration", s.now().Sub(start)),
	)
	return res, nil
}

func countSources(articles []news.Article) int {
	return len(lo.Uniq(lo.Map(articles, func(a news.Article, _ int) string {
		return a.Source.Name
	})))
}
