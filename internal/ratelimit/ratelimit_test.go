package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/crednews/internal/logger"
)

func TestPacerWaits(t *testing.T) {
	p := NewPacer(20 * time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPacerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewPacer(time.Hour).Wait(ctx), context.Canceled)
}

func TestPacerZeroDelay(t *testing.T) {
	assert.NoError(t, NewPacer(0).Wait(context.Background()))
}

func TestBudget(t *testing.T) {
	b := NewBudget(2, time.Hour, logger.NewNop())

	require.NoError(t, b.Use())
	require.NoError(t, b.Use())
	assert.ErrorIs(t, b.Use(), ErrBudgetExhausted)
	assert.Equal(t, 0, b.Remaining())

	b.RecordCacheHit()
	b.RecordCacheHit()
	s := b.Stats()
	assert.Equal(t, 2, s.Used)
	assert.Equal(t, 2, s.CacheHits)
	assert.InDelta(t, 50.0, s.CacheHitRate, 0.001)
}

func TestBudgetResets(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBudget(1, time.Hour, logger.NewNop())
	b.now = func() time.Time { return now }
	b.resetTime = now.Add(time.Hour)

	require.NoError(t, b.Use())
	assert.ErrorIs(t, b.Use(), ErrBudgetExhausted)

	now = now.Add(2 * time.Hour)
	assert.NoError(t, b.Use())
}

func TestBudgetUnlimited(t *testing.T) {
	b := NewBudget(0, 0, logger.NewNop())
	for i := 0; i < 100; i++ {
		require.NoError(t, b.Use())
	}
	assert.Equal(t, -1, b.Remaining())
}
