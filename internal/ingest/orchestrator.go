// Package ingest runs ingestion cycles: sequential upstream fetching,
// normalization, filtering, ordering, summarization and persistence.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deusflow/crednews/internal/logger"
	"github.com/deusflow/crednews/internal/news"
	"github.com/deusflow/crednews/internal/provider"
	"github.com/deusflow/crednews/internal/ratelimit"
	"github.com/deusflow/crednews/internal/retry"
)

const maxBodyBytes = 16 << 20

// ErrTransport marks a network failure, timeout or non-2xx upstream response.
var ErrTransport = errors.New("upstream transport failure")

// Observer receives pipeline counters. *metrics.Metrics implements it.
type Observer interface {
	ObserveUpstream(provider, outcome string)
	AddAccepted(provider string, n int)
	AddRejected(stage string, n int)
}

type nopObserver struct{}

func (nopObserver) ObserveUpstream(string, string) {}
func (nopObserver) AddAccepted(string, int)        {}
func (nopObserver) AddRejected(string, int)        {}

// FetchOptions controls pacing and retries of upstream calls.
type FetchOptions struct {
	RequestDelay   time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

// QueryReport describes what one (provider, query) pair produced.
type QueryReport struct {
	Provider string
	Query    string
	Language string
	Attempts int
	Raw      int
	Invalid  int
	Filtered int
	Accepted int
	Err      string
}

// FetchResult is the accumulated output of all pairs, in configuration order.
type FetchResult struct {
	Articles []news.Article
	Reports  []QueryReport
}

// Orchestrator fetches every configured query from every provider, one
// request at a time.
type Orchestrator struct {
	client     *http.Client
	providers  []provider.Provider
	queries    []provider.Query
	pacer      *ratelimit.Pacer
	opts       FetchOptions
	normalizer *provider.Normalizer
	filter     news.Filter
	obs        Observer
	log        logger.Logger
}

func NewOrchestrator(
	client *http.Client,
	providers []provider.Provider,
	queries []provider.Query,
	opts FetchOptions,
	filter news.Filter,
	obs Observer,
	log logger.Logger,
) *Orchestrator {
	if client == nil {
		client = &http.Client{}
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &Orchestrator{
		client:     client,
		providers:  providers,
		queries:    queries,
		pacer:      ratelimit.NewPacer(opts.RequestDelay),
		opts:       opts,
		normalizer: provider.NewNormalizer(log),
		filter:     filter,
		obs:        obs,
		log:        log,
	}
}

// Fetch processes every (query, provider) pair sequentially. A pair that
// keeps failing contributes no articles; it never aborts the others.
func (o *Orchestrator) Fetch(ctx context.Context) (FetchResult, error) {
	var res FetchResult
	for _, q := range o.queries {
		for _, p := range o.providers {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			articles, report := o.fetchPair(ctx, p, q)
			res.Articles = append(res.Articles, articles...)
			res.Reports = append(res.Reports, report)
		}
	}
	return res, nil
}

func (o *Orchestrator) fetchPair(ctx context.Context, p provider.Provider, q provider.Query) ([]news.Article, QueryReport) {
	report := QueryReport{Provider: p.Name(), Query: q.Text, Language: q.Language}
	log := o.log.With(
		logger.String("provider", p.Name()),
		logger.String("query", q.Text),
		logger.String("language", q.Language),
	)

	var records []any
	cfg := retry.FromRetries(o.opts.MaxRetries, o.opts.RetryDelay)
	cfg.OnRetry = func(attempt int, err error) {
		log.Warn("Upstream fetch failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", o.opts.RetryDelay),
			logger.Error(err),
		)
	}

	err := retry.WithRetry(ctx, cfg, func() error {
		report.Attempts++
		recs, err := o.attempt(ctx, p, q)
		if err != nil {
			o.obs.ObserveUpstream(p.Name(), outcome(err))
			return err
		}
		o.obs.ObserveUpstream(p.Name(), "success")
		records = recs
		return nil
	})
	if err != nil {
		log.Error("Giving up on query", logger.Int("attempts", report.Attempts), logger.Error(err))
		report.Err = err.Error()
		return nil, report
	}

	report.Raw = len(records)
	articles := make([]news.Article, 0, len(records))
	for _, rec := range records {
		a, ok := o.normalizer.Normalize(rec)
		if !ok {
			report.Invalid++
			continue
		}
		if !o.filter.Accept(a) {
			log.Debug("Article rejected by filter", logger.String("url", a.URL), logger.String("language", a.Language))
			report.Filtered++
			continue
		}
		articles = append(articles, a)
	}
	report.Accepted = len(articles)

	o.obs.AddRejected("normalize", report.Invalid)
	o.obs.AddRejected("filter", report.Filtered)
	o.obs.AddAccepted(p.Name(), report.Accepted)

	log.Info("Query processed",
		logger.Int("raw", report.Raw),
		logger.Int("accepted", report.Accepted),
		logger.Int("invalid", report.Invalid),
		logger.Int("filtered", report.Filtered),
	)
	return articles, report
}

// attempt performs one paced, time-bounded request and decodes the payload.
func (o *Orchestrator) attempt(ctx context.Context, p provider.Provider, q provider.Query) ([]any, error) {
	if err := o.pacer.Wait(ctx); err != nil {
		return nil, retry.Permanent(err)
	}

	reqCtx := ctx
	if o.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, o.opts.RequestTimeout)
		defer cancel()
	}

	req, err := p.NewRequest(reqCtx, q)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}

	o.log.Debug("Fetching", logger.String("provider", p.Name()), logger.String("url", req.URL.String()))

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}

	records, err := p.Decode(body)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, provider.ErrParse):
		return "parse_error"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	default:
		return "error"
	}
}
