package bulk

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how Process drains items. Use DefaultOptions and the With*
// functions rather than building the struct by hand: the zero value disables
// ContinueOnError, which is not the default behaviour.
type Options struct {
	// BatchSize is the number of items per batch. 0 puts every item in one batch.
	BatchSize int

	// BatchDelay is the pause between two batches. Never applied within a batch
	// or after the last one.
	BatchDelay time.Duration

	// Parallel enables concurrent execution inside a batch.
	Parallel bool

	// MaxConcurrency caps in-flight handler calls when Parallel is set.
	// 0 means unbounded.
	MaxConcurrency int

	// ContinueOnError keeps processing after an item fails permanently.
	// When false the first permanent failure halts the run.
	ContinueOnError bool

	// RetryFailed enables up to MaxRetries additional attempts per item.
	RetryFailed bool

	// MaxRetries is the number of additional attempts after the first failure.
	MaxRetries int

	// RetryBackoff is the wait before the first retry, doubled for each
	// following one. 0 re-attempts immediately.
	RetryBackoff time.Duration

	// OnProgress is called after every settled item.
	OnProgress ProgressFunc

	// Logger receives run lifecycle and failure events.
	Logger zerolog.Logger
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the defaults: a single sequential batch, continue on
// error, no retries and a disabled logger.
func DefaultOptions() Options {
	return Options{
		ContinueOnError: true,
		Logger:          zerolog.Nop(),
	}
}

// WithBatchSize sets the number of items per batch.
func WithBatchSize(size int) Option {
	return func(o *Options) { o.BatchSize = size }
}

// WithBatchDelay sets the pause between batches.
func WithBatchDelay(delay time.Duration) Option {
	return func(o *Options) { o.BatchDelay = delay }
}

// WithParallel toggles concurrent execution within a batch.
func WithParallel(parallel bool) Option {
	return func(o *Options) { o.Parallel = parallel }
}

// WithMaxConcurrency sets the in-flight handler cap and enables parallel mode.
func WithMaxConcurrency(n int) Option {
	return func(o *Options) {
		o.Parallel = true
		o.MaxConcurrency = n
	}
}

// WithConcurrencyLimit sets MaxConcurrency without enabling parallel mode.
func WithConcurrencyLimit(n int) Option {
	return func(o *Options) { o.MaxConcurrency = n }
}

// WithContinueOnError sets the partial failure policy.
func WithContinueOnError(continueOnError bool) Option {
	return func(o *Options) { o.ContinueOnError = continueOnError }
}

// WithRetry enables retries with the given number of additional attempts.
func WithRetry(maxRetries int) Option {
	return func(o *Options) {
		o.RetryFailed = true
		o.MaxRetries = maxRetries
	}
}

// WithRetryFailed toggles retries without changing MaxRetries.
func WithRetryFailed(retry bool) Option {
	return func(o *Options) { o.RetryFailed = retry }
}

// WithMaxRetries sets the number of additional attempts without toggling RetryFailed.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithRetryBackoff sets the initial wait between attempts.
func WithRetryBackoff(backoff time.Duration) Option {
	return func(o *Options) { o.RetryBackoff = backoff }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Options) { o.OnProgress = fn }
}

// WithLogger sets the logger used for run events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// Validate reports every invalid field. The returned error matches the
// corresponding sentinel with errors.Is.
func (o Options) Validate() error {
	var errs []error

	if o.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, o.BatchSize))
	}
	if o.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, o.MaxConcurrency))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidRetries, o.MaxRetries))
	}
	if o.BatchDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: batch delay %s", ErrInvalidDelay, o.BatchDelay))
	}
	if o.RetryBackoff < 0 {
		errs = append(errs, fmt.Errorf("%w: retry backoff %s", ErrInvalidDelay, o.RetryBackoff))
	}

	return errors.Join(errs...)
}

// maxAttempts is the total number of handler calls allowed per item.
func (o Options) maxAttempts() int {
	if !o.RetryFailed {
		return 1
	}
	return o.MaxRetries + 1
}

func applyOptions(opts []Option) Options {
	options := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}
