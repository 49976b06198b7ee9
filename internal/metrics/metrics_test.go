package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveUpstream("gdelt", "success")
	m.ObserveUpstream("gdelt", "success")
	m.ObserveUpstream("gdelt", "error")
	m.AddAccepted("gdelt", 5)
	m.AddRejected("normalize", 2)
	m.AddRejected("filter", 0)
	m.AddStored(4)
	m.ObserveSummary("fallback")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("gdelt", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("gdelt", "error")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.articlesAccepted.WithLabelValues("gdelt")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recordsRejected.WithLabelValues("normalize")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.articlesStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.summaries.WithLabelValues("fallback")))
}

func TestRecordCycleHealth(t *testing.T) {
	m := New()
	assert.True(t, m.Health().Healthy)

	m.RecordCycle(time.Second, 0, errors.New("storage down"))
	h := m.Health()
	assert.False(t, h.Healthy)
	assert.Equal(t, "storage down", h.LastError)
	assert.NotEmpty(t, h.LastErrorTime)

	m.RecordCycle(time.Second, 12, nil)
	h = m.Health()
	assert.True(t, h.Healthy)
	assert.Equal(t, int64(2), h.Cycles)
	assert.Equal(t, 12, h.LastArticles)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveUpstream("newsapi", "success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `crednews_upstream_requests_total{outcome="success",provider="newsapi"} 1`)
}

type stubStats struct {
	remaining int
	hitRate   float64
	entries   int
}

func (s *stubStats) RemainingCalls() int   { return s.remaining }
func (s *stubStats) CacheHitRate() float64 { return s.hitRate }
func (s *stubStats) CachedSummaries() int  { return s.entries }

func TestWatchSummarizer(t *testing.T) {
	m := New()
	stats := &stubStats{remaining: 40, hitRate: 25, entries: 3}
	require.NoError(t, m.WatchSummarizer(stats))

	stats.remaining = 39

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "crednews_summarizer_budget_remaining 39")
	assert.Contains(t, body, "crednews_summarizer_cache_hit_rate 25")
	assert.Contains(t, body, "crednews_summarizer_cache_entries 3")

	assert.Error(t, m.WatchSummarizer(stats))
}
