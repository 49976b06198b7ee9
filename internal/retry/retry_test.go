package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestWithRetrySucceedsEventually(t *testing.T) {
	calls := 0
	var retried []int

	cfg := FromRetries(3, time.Millisecond)
	cfg.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestWithRetryExhausts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), FromRetries(2, time.Millisecond), func() error {
		calls++
		return errBoom
	})

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls)
}

func TestWithRetryZeroRetries(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), FromRetries(0, time.Hour), func() error {
		calls++
		return errBoom
	})

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestWithRetryPermanent(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), FromRetries(5, time.Millisecond), func() error {
		calls++
		return Permanent(errBoom)
	})

	assert.Equal(t, errBoom, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, FromRetries(3, time.Hour), func() error {
		return errBoom
	})

	assert.ErrorIs(t, err, context.Canceled)
}
