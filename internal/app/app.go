// Package app builds every component from configuration and hands them to
// the commands.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/crednews/internal/cache"
	"github.com/deusflow/crednews/internal/config"
	"github.com/deusflow/crednews/internal/ingest"
	"github.com/deusflow/crednews/internal/logger"
	"github.com/deusflow/crednews/internal/metrics"
	"github.com/deusflow/crednews/internal/news"
	"github.com/deusflow/crednews/internal/notifier"
	"github.com/deusflow/crednews/internal/provider"
	"github.com/deusflow/crednews/internal/ratelimit"
	"github.com/deusflow/crednews/internal/scraper"
	"github.com/deusflow/crednews/internal/server"
	"github.com/deusflow/crednews/internal/storage"
	"github.com/deusflow/crednews/internal/summary"
)

const (
	cacheCleanupInterval = 10 * time.Minute
	budgetWindow         = 24 * time.Hour
	remoteTimeout        = 30 * time.Second
)

// App owns the long-lived components. Close releases them.
type App struct {
	cfg     *config.Config
	log     logger.Logger
	store   *storage.Store
	metrics *metrics.Metrics
	service *ingest.Service
	router  http.Handler

	providers []string
	closers   []func()
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, metrics: metrics.New()}

	store, err := storage.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, func() { _ = store.Close() })

	orch, err := a.buildOrchestrator()
	if err != nil {
		a.Close()
		return nil, err
	}

	analyzer, err := a.buildAnalyzer(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.service = ingest.NewService(orch, analyzer, store, a.buildPublisher(), a.metrics,
		ingest.ServiceOptions{EmptyPolicy: cfg.EmptyResultPolicy, Location: cfg.Location()},
		log,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := server.NewHandler(a.service, store, a.metrics, server.Options{
		Port:            cfg.HTTPPort,
		Production:      cfg.IsProduction(),
		IncludeAnalysis: cfg.IncludeAnalysis,
		Sources:         a.providers,
	}, log)
	a.router = server.NewRouter(handler, a.metrics.Handler(), log)

	return a, nil
}

func (a *App) buildOrchestrator() (*ingest.Orchestrator, error) {
	queries, err := provider.LoadQueries(a.cfg.QueriesPath)
	if err != nil {
		return nil, err
	}

	providers := make([]provider.Provider, 0, len(a.cfg.Providers))
	for _, name := range a.cfg.Providers {
		switch name {
		case config.ProviderGDELT:
			providers = append(providers, provider.NewGDELT(a.cfg.GDELTURL, a.cfg.GDELTPageSize))
		case config.ProviderNewsAPI:
			providers = append(providers, provider.NewNewsAPI(a.cfg.NewsAPIURL, a.cfg.NewsAPIKey, a.cfg.NewsAPIPageSize))
		case config.ProviderGoogleNews:
			providers = append(providers, provider.NewGoogleNews(a.cfg.GoogleNewsURL))
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
		a.providers = append(a.providers, name)
	}

	filter, err := news.NewFilter(a.cfg.FilterStrategy, a.cfg.FilterKeywords)
	if err != nil {
		return nil, err
	}

	a.log.Info("Fetch pipeline configured",
		logger.Strings("providers", a.providers),
		logger.Int("queries", len(queries)),
		logger.String("filter", filter.Name()),
	)

	return ingest.NewOrchestrator(
		&http.Client{},
		providers,
		queries,
		ingest.FetchOptions{
			RequestDelay:   a.cfg.RequestDelay,
			RequestTimeout: a.cfg.RequestTimeout,
			MaxRetries:     a.cfg.MaxRetries,
			RetryDelay:     a.cfg.RetryDelay,
		},
		filter,
		a.metrics,
		a.log,
	), nil
}

func (a *App) buildAnalyzer(ctx context.Context) (*summary.Analyzer, error) {
	var enricher summary.Enricher
	if a.cfg.Enrich {
		enricher = scraper.New(scraper.Options{
			Timeout:     a.cfg.ScrapeTimeout,
			Concurrency: a.cfg.ScrapeConcurrency,
			MaxArticles: a.cfg.ScrapeMaxArticles,
			RPS:         a.cfg.ScrapeRPS,
		}, a.log)
	}

	remote, err := a.buildRemote(ctx)
	if err != nil {
		return nil, err
	}

	var guarded summary.Summarizer
	if remote != nil {
		c := cache.New(a.cfg.SummaryCacheTTL, cacheCleanupInterval)
		a.closers = append(a.closers, c.Close)
		budget := ratelimit.NewBudget(a.cfg.MaxRemoteRequests, budgetWindow, a.log)
		g := summary.NewGuarded(remote, c, budget, a.log)
		if err := a.metrics.WatchSummarizer(g); err != nil {
			a.log.Warn("Summarizer gauges not exported", logger.Error(err))
		}
		guarded = g
		a.log.Info("Remote summarizer enabled",
			logger.String("provider", remote.Name()),
			logger.Int("budget", a.cfg.MaxRemoteRequests),
		)
	} else {
		a.log.Info("Remote summarizer disabled, using fallback digest only")
	}

	return summary.NewAnalyzer(guarded, enricher, summary.NewDigest(a.cfg.Location()), a.cfg.ScrapeConcurrency, a.log), nil
}

// buildRemote returns nil when the chosen summarizer has no credentials.
func (a *App) buildRemote(ctx context.Context) (summary.Summarizer, error) {
	switch a.cfg.Summarizer {
	case config.SummarizerHuggingFace:
		if a.cfg.HFAPIKey == "" {
			a.log.Warn("HF_API_KEY is not set")
			return nil, nil
		}
		return summary.NewHuggingFace(a.cfg.HFModelURL, a.cfg.HFAPIKey, remoteTimeout), nil
	case config.SummarizerGemini:
		if a.cfg.GeminiAPIKey == "" {
			a.log.Warn("GEMINI_API_KEY is not set")
			return nil, nil
		}
		g, err := summary.NewGemini(ctx, a.cfg.GeminiAPIKey, a.cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g.Close)
		return g, nil
	case config.SummarizerOpenAI:
		if a.cfg.OpenAIKey == "" {
			a.log.Warn("OPENAI_API_KEY is not set")
			return nil, nil
		}
		return summary.NewOpenAI(a.cfg.OpenAIKey, a.cfg.OpenAIModel), nil
	default:
		return nil, nil
	}
}

func (a *App) buildPublisher() ingest.Publisher {
	if !a.cfg.TelegramEnabled() {
		return nil
	}
	n, err := notifier.New(a.cfg.TelegramToken, a.cfg.TelegramChatID, a.log)
	if err != nil {
		a.log.Warn("Telegram disabled", logger.Error(err))
		return nil
	}
	return n
}

// RunOnce runs a single ingestion cycle.
func (a *App) RunOnce(ctx context.Context) (ingest.Result, error) {
	return a.service.RunCycle(ctx)
}

// Serve runs the HTTP server, and the scheduler when a schedule is set,
// until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	if a.cfg.Schedule != "" {
		sched, err := ingest.NewScheduler(a.cfg.Schedule, a.cfg.Location(), a.service, a.log)
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := sched.Stop(stopCtx); err != nil {
				a.log.Warn("Scheduler did not stop in time", logger.Error(err))
			}
		}()
	}

	return server.New(a.router, a.cfg.HTTPPort, a.log).Run(ctx)
}

// Router exposes the HTTP handler.
func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Close releases components in reverse construction order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
