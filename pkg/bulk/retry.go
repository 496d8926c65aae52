package bulk

import (
	"context"
	"fmt"
	"time"
)

// MaxRetryBackoff caps the exponential wait between two attempts.
const MaxRetryBackoff = 30 * time.Second

// retrier wraps a single item's handler call with bounded retry.
type retrier[T, R any] struct {
	handler     Handler[T, R]
	maxAttempts int
	backoff     time.Duration
}

func newRetrier[T, R any](handler Handler[T, R], opts Options) *retrier[T, R] {
	return &retrier[T, R]{
		handler:     handler,
		maxAttempts: opts.maxAttempts(),
		backoff:     opts.RetryBackoff,
	}
}

// do calls the handler until it succeeds, the attempts run out or ctx is done.
// It returns the value and error of the last attempt and how many attempts ran.
func (r *retrier[T, R]) do(ctx context.Context, item T) (R, int, error) {
	var (
		value R
		err   error
	)

	attempts := 0
	for attempts < r.maxAttempts {
		attempts++

		value, err = safeCall(ctx, r.handler, item)
		if err == nil {
			return value, attempts, nil
		}

		if attempts == r.maxAttempts {
			break
		}
		if waitErr := sleepContext(ctx, backoffFor(r.backoff, attempts)); waitErr != nil {
			break
		}
	}

	var zero R
	return zero, attempts, err
}

// safeCall invokes handler and turns a panic into an error.
func safeCall[T, R any](ctx context.Context, handler Handler[T, R], item T) (value R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero R
			value = zero
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, rec)
		}
	}()

	return handler(ctx, item)
}

// backoffFor returns the wait after the given failed attempt (1-based).
func backoffFor(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}

	wait := base
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= MaxRetryBackoff || wait <= 0 {
			return MaxRetryBackoff
		}
	}
	return min(wait, MaxRetryBackoff)
}

// sleepContext waits for d or until ctx is done. With d <= 0 it only reports
// whether ctx is already done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
