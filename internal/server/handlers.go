package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/crednews/internal/ingest"
	"github.com/deusflow/crednews/internal/logger"
	"github.com/deusflow/crednews/internal/metrics"
	"github.com/deusflow/crednews/internal/news"
	"github.com/deusflow/crednews/internal/storage"
)

// NewsStore is the read side of the persistence layer.
type NewsStore interface {
	GetArticlesByDate(ctx context.Context, date string) ([]news.Article, error)
	GetArticlesByTopic(ctx context.Context, topic string) ([]news.Article, error)
	SearchArticles(ctx context.Context, keyword string) ([]news.Article, error)
	GetStats(ctx context.Context) (storage.Stats, error)
	GetDailySummary(ctx context.Context, date string) (storage.DailySummary, error)
}

// CycleRunner runs one ingestion cycle on demand.
type CycleRunner interface {
	RunCycle(ctx context.Context) (ingest.Result, error)
}

// HealthReporter exposes last-run status.
type HealthReporter interface {
	Health() metrics.Health
}

// ErrorResponse is the body of every failed request. Details is only set
// outside production.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type analysisBody struct {
	Summary string `json:"summary"`
	Source  string `json:"source,omitempty"`
}

type newsResponse struct {
	Articles []news.Article `json:"articles"`
	Analysis *analysisBody  `json:"analysis,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
	metrics.Health
}

// Handler holds the HTTP handlers.
type Handler struct {
	runner          CycleRunner
	store           NewsStore
	health          HealthReporter
	sources         []string
	includeAnalysis bool
	production      bool
	log             logger.Logger
}

func NewHandler(runner CycleRunner, store NewsStore, health HealthReporter, opts Options, log logger.Logger) *Handler {
	return &Handler{
		runner:          runner,
		store:           store,
		health:          health,
		sources:         opts.Sources,
		includeAnalysis: opts.IncludeAnalysis,
		production:      opts.Production,
		log:             log,
	}
}

// GetNews runs a full ingestion cycle and returns its articles. The cycle
// finishes even if the client goes away.
func (h *Handler) GetNews(c *gin.Context) {
	res, err := h.runner.RunCycle(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		h.fail(c, "Failed to fetch news", err)
		return
	}

	body := newsResponse{Articles: nonNil(res.Articles)}
	if h.includeAnalysis && res.Analysis != nil {
		body.Analysis = &analysisBody{Summary: res.Analysis.Summary, Source: res.Analysis.Source}
	}
	c.JSON(http.StatusOK, body)
}

// GetHistory matches stored dates literally, so a malformed date yields [].
func (h *Handler) GetHistory(c *gin.Context) {
	articles, err := h.store.GetArticlesByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.fail(c, "Failed to fetch news history", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(articles))
}

func (h *Handler) GetByTopic(c *gin.Context) {
	articles, err := h.store.GetArticlesByTopic(c.Request.Context(), c.Param("topic"))
	if err != nil {
		h.fail(c, "Failed to fetch news by topic", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(articles))
}

func (h *Handler) Search(c *gin.Context) {
	articles, err := h.store.SearchArticles(c.Request.Context(), c.Param("keyword"))
	if err != nil {
		h.fail(c, "Failed to search news", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(articles))
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.GetStats(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to fetch stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetDailySummary(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	d, err := h.store.GetDailySummary(c.Request.Context(), date)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No summary for " + date})
		return
	}
	if err != nil {
		h.fail(c, "Failed to fetch daily summary", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) GetSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"source": nonNil(h.sources)})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := h.health.Health()
	if !health.Healthy {
		c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "error", Health: health})
		return
	}
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Health: health})
}

// dateParam validates the :date path parameter as YYYY-MM-DD.
func (h *Handler) dateParam(c *gin.Context) (string, bool) {
	date := c.Param("date")
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid date, expected YYYY-MM-DD"})
		return "", false
	}
	return date, true
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	resp := ErrorResponse{Error: msg}
	if !h.production {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
