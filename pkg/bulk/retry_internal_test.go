package bulk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffFor(t *testing.T) {
	tests := []struct {
		name    string
		base    time.Duration
		attempt int
		want    time.Duration
	}{
		{name: "disabled", base: 0, attempt: 3, want: 0},
		{name: "first retry", base: 100 * time.Millisecond, attempt: 1, want: 100 * time.Millisecond},
		{name: "doubles", base: 100 * time.Millisecond, attempt: 3, want: 400 * time.Millisecond},
		{name: "capped", base: 10 * time.Second, attempt: 5, want: MaxRetryBackoff},
		{name: "large attempt does not overflow", base: time.Second, attempt: 200, want: MaxRetryBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backoffFor(tt.base, tt.attempt))
		})
	}
}

func TestRetrier_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	handler := func(context.Context, int) (int, error) {
		calls++
		cancel()
		return 0, errors.New("failed")
	}

	r := newRetrier(Handler[int, int](handler), Options{RetryFailed: true, MaxRetries: 5})
	_, attempts, err := r.do(ctx, 1)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
	assert.EqualError(t, err, "failed")
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, sleepContext(ctx, 0), context.Canceled)
}
