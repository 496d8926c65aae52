package bulk

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Process runs handler over every item according to opts and returns the
// aggregate result.
//
// The returned error is non-nil only for configuration mistakes (a nil handler
// or invalid options); in that case the handler is never called. Item failures,
// fail-fast aborts and context cancellation are all reported through the
// Result.
func Process[T, R any](
	ctx context.Context,
	op OperationType,
	items []T,
	handler Handler[T, R],
	opts ...Option,
) (*Result[T, R], error) {
	options := applyOptions(opts)

	if handler == nil {
		options.Logger.Error().Str("operation", op.String()).Err(ErrNilHandler).Msg("invalid bulk configuration")
		return nil, ErrNilHandler
	}
	if err := options.Validate(); err != nil {
		options.Logger.Error().Str("operation", op.String()).Err(err).Msg("invalid bulk configuration")
		return nil, err
	}

	r := newRun(op, items, handler, options)
	return r.execute(ctx), nil
}

// run holds the state of a single Process call.
type run[T, R any] struct {
	id      string
	items   []T
	batches [][2]int
	opts    Options
	retrier *retrier[T, R]
	agg     *aggregator[T, R]
	logger  zerolog.Logger
}

func newRun[T, R any](op OperationType, items []T, handler Handler[T, R], opts Options) *run[T, R] {
	id := ulid.Make().String()
	logger := opts.Logger.With().
		Str("component", "bulk").
		Str("run_id", id).
		Str("operation", op.String()).
		Logger()

	batches := CalculateBatches(len(items), opts.BatchSize)

	return &run[T, R]{
		id:      id,
		items:   items,
		batches: batches,
		opts:    opts,
		retrier: newRetrier(handler, opts),
		agg:     newAggregator[T, R](op, len(items), len(batches), time.Now(), opts.OnProgress, logger),
		logger:  logger,
	}
}

func (r *run[T, R]) execute(ctx context.Context) *Result[T, R] {
	batches := r.batches
	if len(batches) == 0 {
		r.logger.Debug().Msg("no items to process")
		return r.agg.result(r.id, false, false)
	}

	r.logger.Info().
		Int("items", len(r.items)).
		Int("batches", len(batches)).
		Bool("parallel", r.opts.Parallel).
		Int("max_concurrency", r.opts.MaxConcurrency).
		Bool("continue_on_error", r.opts.ContinueOnError).
		Int("max_attempts", r.opts.maxAttempts()).
		Msg("bulk run started")

	halted := false
	for i, b := range batches {
		if ctx.Err() != nil {
			halted = true
			break
		}

		r.agg.startBatch(i + 1)

		var completed bool
		if r.opts.Parallel {
			completed = r.runParallel(ctx, b[0], b[1])
		} else {
			completed = r.runSequential(ctx, b[0], b[1])
		}
		if !completed {
			halted = true
			break
		}

		if i < len(batches)-1 && r.opts.BatchDelay > 0 {
			if err := sleepContext(ctx, r.opts.BatchDelay); err != nil {
				halted = true
				break
			}
		}
	}

	result := r.agg.result(r.id, halted, ctx.Err() != nil)
	r.logResult(result)
	return result
}

// runSequential drains items[start:end] one at a time in input order. It
// returns false when the run must stop.
func (r *run[T, R]) runSequential(ctx context.Context, start, end int) bool {
	for idx := start; idx < end; idx++ {
		if ctx.Err() != nil {
			return false
		}

		outcome := r.attempt(ctx, idx)
		r.agg.record(outcome)

		if outcome.Err != nil && !r.opts.ContinueOnError {
			return false
		}
	}
	return true
}

// runParallel drains items[start:end] with at most MaxConcurrency handler
// calls in flight. Once a fail-fast failure or cancellation is seen no new
// item starts; items already running settle and are recorded.
func (r *run[T, R]) runParallel(ctx context.Context, start, end int) bool {
	var (
		g      errgroup.Group
		halted atomic.Bool
	)
	if r.opts.MaxConcurrency > 0 {
		g.SetLimit(r.opts.MaxConcurrency)
	}

	stopped := func() bool { return halted.Load() || ctx.Err() != nil }

	for idx := start; idx < end; idx++ {
		if stopped() {
			break
		}

		// Go blocks until a slot is free, so the halt flag is checked again
		// once the item actually gets to run.
		g.Go(func() error {
			if stopped() {
				return nil
			}

			outcome := r.attempt(ctx, idx)
			r.agg.record(outcome)

			if outcome.Err != nil && !r.opts.ContinueOnError {
				halted.Store(true)
			}
			return nil
		})
	}

	_ = g.Wait()
	return !stopped()
}

// attempt runs one item through the retrier and builds its outcome.
func (r *run[T, R]) attempt(ctx context.Context, idx int) ItemOutcome[T, R] {
	item := r.items[idx]
	started := time.Now()

	value, attempts, err := r.retrier.do(ctx, item)

	outcome := ItemOutcome[T, R]{
		Index:    idx,
		Item:     item,
		Attempts: attempts,
		Duration: time.Since(started),
	}
	if err != nil {
		outcome.Err = err
		outcome.ErrorMessage = err.Error()
		r.logger.Debug().
			Int("index", idx).
			Int("attempts", attempts).
			Err(err).
			Msg("item failed")
		return outcome
	}

	outcome.Value = value
	return outcome
}

func (r *run[T, R]) logResult(result *Result[T, R]) {
	level, msg := zerolog.InfoLevel, "bulk run finished"
	if result.Aborted {
		level, msg = zerolog.WarnLevel, "bulk run aborted"
	}

	r.logger.WithLevel(level).
		Int("processed", result.TotalProcessed).
		Int("total", result.TotalInput).
		Int("succeeded", len(result.SuccessfulItems)).
		Int("failed", len(result.FailedItems)).
		Float64("success_rate", result.SuccessRate).
		Bool("canceled", result.Canceled).
		Dur("elapsed", result.ProcessingTime).
		Msg(msg)
}
