// Package ratelimit paces upstream requests and caps remote summarization usage.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/deusflow/crednews/internal/logger"
)

// ErrBudgetExhausted is returned once the call budget for the window is spent.
var ErrBudgetExhausted = errors.New("remote call budget exhausted")

// Pacer waits a fixed delay before every request. It does not adapt to
// response times or errors.
type Pacer struct {
	delay time.Duration
}

func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait blocks for the configured delay or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Budget caps the number of remote summarization calls per window and keeps
// cache hit statistics alongside.
type Budget struct {
	mu          sync.Mutex
	used        int
	max         int
	window      time.Duration
	resetTime   time.Time
	cacheHits   int
	cacheMisses int
	now         func() time.Time
	log         logger.Logger
}

// Stats is a snapshot of Budget counters.
type Stats struct {
	Used         int       `json:"used"`
	Limit        int       `json:"limit"`
	CacheHits    int       `json:"cache_hits"`
	CacheMisses  int       `json:"cache_misses"`
	CacheHitRate float64   `json:"cache_hit_rate"`
	ResetTime    time.Time `json:"reset_time"`
}

// NewBudget allows max calls per window. max <= 0 means unlimited.
func NewBudget(max int, window time.Duration, log logger.Logger) *Budget {
	if window <= 0 {
		window = 24 * time.Hour
	}
	b := &Budget{max: max, window: window, now: time.Now, log: log}
	b.resetTime = b.now().Add(window)
	return b
}

// Use consumes one call from the budget.
func (b *Budget) Use() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	if b.max > 0 && b.used >= b.max {
		b.log.Warn("Remote call budget reached", logger.Int("used", b.used), logger.Int("limit", b.max))
		return ErrBudgetExhausted
	}
	b.used++
	b.cacheMisses++
	return nil
}

// Remaining reports how many calls are left, or -1 when unlimited.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	if b.max <= 0 {
		return -1
	}
	return b.max - b.used
}

// RecordCacheHit notes a call avoided thanks to the summary cache.
func (b *Budget) RecordCacheHit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cacheHits++
}

func (b *Budget) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Stats{
		Used:        b.used,
		Limit:       b.max,
		CacheHits:   b.cacheHits,
		CacheMisses: b.cacheMisses,
		ResetTime:   b.resetTime,
	}
	if total := b.cacheHits + b.cacheMisses; total > 0 {
		s.CacheHitRate = float64(b.cacheHits) / float64(total) * 100
	}
	return s
}

// checkReset clears counters once the window has passed. Caller holds mu.
func (b *Budget) checkReset() {
	now := b.now()
	if !now.After(b.resetTime) {
		return
	}
	b.log.Info("Resetting remote call budget",
		logger.Int("used", b.used),
		logger.Int("cache_hits", b.cacheHits),
	)
	b.used = 0
	b.cacheHits = 0
	b.cacheMisses = 0
	b.resetTime = now.Add(b.window)
}
