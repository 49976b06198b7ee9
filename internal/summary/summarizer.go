// Package summary produces the natural-language digest of an ingestion
// cycle, preferring a remote model and falling back to a local digest.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/deusflow/crednews/internal/cache"
	"github.com/deusflow/crednews/internal/logger"
	"github.com/deusflow/crednews/internal/ratelimit"
)

// ErrUnavailable means the remote summarizer produced nothing usable. It is
// never surfaced to clients; callers fall back to the local digest.
var ErrUnavailable = errors.New("remote summarization unavailable")

// Options bound the length of a generated summary, in model tokens.
type Options struct {
	MaxLength int
	MinLength int
}

var (
	ArticleOptions = Options{MaxLength: 150, MinLength: 30}
	FinalOptions   = Options{MaxLength: 500, MinLength: 100}
)

// Summarizer is a remote text-to-text summarization endpoint.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, text string, opts Options) (string, error)
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

// Guarded wraps a Summarizer with a result cache and a call budget.
type Guarded struct {
	inner  Summarizer
	cache  *cache.Cache
	budget *ratelimit.Budget
	log    logger.Logger
}

func NewGuarded(inner Summarizer, c *cache.Cache, b *ratelimit.Budget, log logger.Logger) *Guarded {
	return &Guarded{inner: inner, cache: c, budget: b, log: log}
}

func (g *Guarded) Name() string { return g.inner.Name() }

func (g *Guarded) Summarize(ctx context.Context, text string, opts Options) (string, error) {
	key := cache.Key(g.inner.Name(), text, strconv.Itoa(opts.MaxLength), strconv.Itoa(opts.MinLength))
	if g.cache != nil {
		if v, ok := g.cache.Get(key); ok {
			if g.budget != nil {
				g.budget.RecordCacheHit()
			}
			return v, nil
		}
	}

	if g.budget != nil {
		if err := g.budget.Use(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	out, err := g.inner.Summarize(ctx, text, opts)
	if err != nil {
		return "", err
	}
	if g.cache != nil {
		g.cache.Set(key, out)
	}
	return out, nil
}

// RemainingCalls reports the calls left in the budget window, or -1 when
// unlimited.
func (g *Guarded) RemainingCalls() int {
	if g.budget == nil {
		return -1
	}
	return g.budget.Remaining()
}

// CacheHitRate is the percentage of requests answered from the cache.
func (g *Guarded) CacheHitRate() float64 {
	if g.budget == nil {
		return 0
	}
	return g.budget.Stats().CacheHitRate
}

func (g *Guarded) CachedSummaries() int {
	if g.cache == nil {
		return 0
	}
	return g.cache.Len()
}
