// Package metrics exposes Prometheus counters for the ingestion pipeline and
// tracks the health of the last cycle.
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crednews"

type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	articlesAccepted *prometheus.CounterVec
	recordsRejected  *prometheus.CounterVec
	articlesStored   prometheus.Counter
	summaries        *prometheus.CounterVec
	cycles           *prometheus.CounterVec
	cycleDuration    prometheus.Histogram

	mu            sync.RWMutex
	lastRunTime   time.Time
	lastErrorTime time.Time
	lastError     string
	lastArticles  int
	isHealthy     bool
	cycleCount    int64
}

// New registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream fetch attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		articlesAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_accepted_total",
			Help:      "Articles that passed normalization and filtering.",
		}, []string{"provider"}),
		recordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Upstream records dropped, by pipeline stage.",
		}, []string{"stage"}),
		articlesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_stored_total",
			Help:      "Articles written to storage.",
		}),
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Cycle summaries by origin (remote or fallback).",
		}, []string{"source"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Ingestion cycles by outcome.",
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of ingestion cycles.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		isHealthy: true,
	}

	reg.MustRegister(
		m.upstreamRequests,
		m.articlesAccepted,
		m.recordsRejected,
		m.articlesStored,
		m.summaries,
		m.cycles,
		m.cycleDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SummarizerStats is read on every scrape of the summarizer gauges.
type SummarizerStats interface {
	RemainingCalls() int
	CacheHitRate() float64
	CachedSummaries() int
}

// WatchSummarizer exports the remote summarizer's budget and cache state as
// gauges. It may be called once per Metrics.
func (m *Metrics) WatchSummarizer(s SummarizerStats) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "summarizer_budget_remaining",
			Help:      "Remote summarization calls left in the current window, -1 when unlimited.",
		}, func() float64 { return float64(s.RemainingCalls()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "summarizer_cache_hit_rate",
			Help:      "Percentage of summary requests answered from the cache.",
		}, s.CacheHitRate),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "summarizer_cache_entries",
			Help:      "Summaries currently held in the cache.",
		}, func() float64 { return float64(s.CachedSummaries()) }),
	}
	for _, g := range gauges {
		if err := m.registry.Register(g); err != nil {
			return fmt.Errorf("register summarizer gauge: %w", err)
		}
	}
	return nil
}

func (m *Metrics) ObserveUpstream(provider, outcome string) {
	m.upstreamRequests.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) AddAccepted(provider string, n int) {
	m.articlesAccepted.WithLabelValues(provider).Add(float64(n))
}

func (m *Metrics) AddRejected(stage string, n int) {
	if n > 0 {
		m.recordsRejected.WithLabelValues(stage).Add(float64(n))
	}
}

func (m *Metrics) AddStored(n int) {
	m.articlesStored.Add(float64(n))
}

func (m *Metrics) ObserveSummary(source string) {
	m.summaries.WithLabelValues(source).Inc()
}

// RecordCycle stores the outcome of an ingestion cycle and updates health.
func (m *Metrics) RecordCycle(duration time.Duration, articles int, err error) {
	m.cycleDuration.Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cycleCount++
	m.lastRunTime = time.Now()
	if err != nil {
		m.cycles.WithLabelValues("error").Inc()
		m.lastError = err.Error()
		m.lastErrorTime = m.lastRunTime
		m.isHealthy = false
		return
	}
	m.cycles.WithLabelValues("success").Inc()
	m.lastArticles = articles
	m.isHealthy = true
}

// Health is the JSON body of the health endpoint.
type Health struct {
	Healthy       bool   `json:"healthy"`
	Cycles        int64  `json:"cycles"`
	LastRunTime   string `json:"last_run_time,omitempty"`
	LastArticles  int    `json:"last_articles"`
	LastError     string `json:"last_error,omitempty"`
	LastErrorTime string `json:"last_error_time,omitempty"`
}

func (m *Metrics) Health() Health {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := Health{
		Healthy:      m.isHealthy,
		Cycles:       m.cycleCount,
		LastArticles: m.lastArticles,
		LastError:    m.lastError,
	}
	if !m.lastRunTime.IsZero() {
		h.LastRunTime = m.lastRunTime.Format(time.RFC3339)
	}
	if !m.lastErrorTime.IsZero() {
		h.LastErrorTime = m.lastErrorTime.Format(time.RFC3339)
	}
	return h
}
