package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/crednews/internal/logger"
	"github.com/deusflow/crednews/internal/news"
	"github.com/deusflow/crednews/internal/provider"
)

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
	accepted int
	rejected map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{outcomes: map[string]int{}, rejected: map[string]int{}}
}

func (o *countingObserver) ObserveUpstream(_, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

func (o *countingObserver) AddAccepted(_ string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accepted += n
}

func (o *countingObserver) AddRejected(stage string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected[stage] += n
}

func fastOptions() FetchOptions {
	return FetchOptions{RequestTimeout: time.Second, MaxRetries: 2, RetryDelay: time.Millisecond}
}

func newTestOrchestrator(t *testing.T, srv *httptest.Server, queries []provider.Query, opts FetchOptions, obs Observer) *Orchestrator {
	t.Helper()
	return NewOrchestrator(
		srv.Client(),
		[]provider.Provider{provider.NewGDELT(srv.URL, 10)},
		queries,
		opts,
		news.LanguageFilter{},
		obs,
		logger.NewNop(),
	)
}

func TestFetchSequentialAndFiltered(t *testing.T) {
	var inFlight, maxInFlight int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		if cur > atomic.LoadInt32(&maxInFlight) {
			atomic.StoreInt32(&maxInFlight, cur)
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("query") {
		case "first":
			_, _ = w.Write([]byte(`{"articles":[
				{"title":"Open badges","url":"https://a.com/1","seendate":"20240101T000000Z","language":"English"},
				{"title":"No link"},
				{"title":"FTP","url":"ftp://x","language":"English"}
			]}`))
		case "second":
			_, _ = w.Write([]byte(`[{"title":"디지털 배지","url":"https://b.kr/2","seendate":"20240102T000000Z"}]`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	obs := newCountingObserver()
	o := newTestOrchestrator(t, srv, []provider.Query{
		{Text: "first", Language: "eng"},
		{Text: "second", Language: "kor"},
	}, fastOptions(), obs)

	res, err := o.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Articles, 2)
	assert.Equal(t, "https://a.com/1", res.Articles[0].URL)
	assert.Equal(t, "https://b.kr/2", res.Articles[1].URL)
	assert.Equal(t, news.LanguageKorean, res.Articles[1].Language)
	assert.EqualValues(t, 1, maxInFlight)

	require.Len(t, res.Reports, 2)
	assert.Equal(t, QueryReport{
		Provider: "gdelt", Query: "first", Language: "eng",
		Attempts: 1, Raw: 3, Invalid: 1, Filtered: 1, Accepted: 1,
	}, res.Reports[0])
	assert.Equal(t, 1, res.Reports[1].Accepted)

	assert.Equal(t, 2, obs.outcomes["success"])
	assert.Equal(t, 2, obs.accepted)
	assert.Equal(t, 1, obs.rejected["normalize"])
	assert.Equal(t, 1, obs.rejected["filter"])
}

func TestFetchRetriesTransportAndParseFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			_, _ = w.Write([]byte(`<html>rate limited</html>`))
		default:
			_, _ = w.Write([]byte(`[{"title":"Badge","url":"https://a.com/1"}]`))
		}
	}))
	defer srv.Close()

	obs := newCountingObserver()
	o := newTestOrchestrator(t, srv, []provider.Query{{Text: "q", Language: "eng"}}, fastOptions(), obs)

	res, err := o.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Articles, 1)
	assert.Equal(t, 3, res.Reports[0].Attempts)
	assert.Empty(t, res.Reports[0].Err)
	assert.Equal(t, 1, obs.outcomes["transport_error"])
	assert.Equal(t, 1, obs.outcomes["parse_error"])
	assert.Equal(t, 1, obs.outcomes["success"])
}

func TestFetchExhaustedPairYieldsNothing(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("query") == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"title":"Badge","url":"https://a.com/1"}]`))
	}))
	defer srv.Close()

	o := newTestOrchestrator(t, srv, []provider.Query{
		{Text: "broken", Language: "eng"},
		{Text: "fine", Language: "eng"},
	}, fastOptions(), nil)

	res, err := o.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Articles, 1)

	assert.Equal(t, 3, res.Reports[0].Attempts)
	assert.Contains(t, res.Reports[0].Err, "status 500")
	assert.Zero(t, res.Reports[0].Accepted)
	assert.EqualValues(t, 4, atomic.LoadInt32(&calls))
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	opts := FetchOptions{RequestTimeout: 20 * time.Millisecond}
	o := newTestOrchestrator(t, srv, []provider.Query{{Text: "slow", Language: "eng"}}, opts, nil)

	start := time.Now()
	res, err := o.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Articles)
	assert.Equal(t, 1, res.Reports[0].Attempts)
	assert.NotEmpty(t, res.Reports[0].Err)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestFetchWaitsBeforeEveryRequest(t *testing.T) {
	var mu sync.Mutex
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	opts := fastOptions()
	opts.RequestDelay = 30 * time.Millisecond
	o := newTestOrchestrator(t, srv, []provider.Query{
		{Text: "a", Language: "eng"},
		{Text: "b", Language: "eng"},
	}, opts, nil)

	start := time.Now()
	_, err := o.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, stamps, 2)
	assert.GreaterOrEqual(t, stamps[0].Sub(start), 30*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 30*time.Millisecond)
}

func TestFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	o := newTestOrchestrator(t, srv, []provider.Query{{Text: "a", Language: "eng"}}, fastOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
