package bulk

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ItemOutcome is the final outcome of one item, after any retries.
type ItemOutcome[T, R any] struct {
	// Index is the item's position in the input slice.
	Index int

	// Item is the input value.
	Item T

	// Value is the handler's result. Zero when the item failed.
	Value R

	// Err is the error of the last attempt, nil on success.
	Err error

	// ErrorMessage is Err.Error() verbatim, empty on success.
	ErrorMessage string

	// Attempts is the number of handler calls made for this item.
	Attempts int

	// Duration covers every attempt, including backoff waits.
	Duration time.Duration
}

// Succeeded reports whether the item's last attempt succeeded.
func (o ItemOutcome[T, R]) Succeeded() bool {
	return o.Err == nil
}

// Result is the aggregate of a bulk run. Outcome slices are in completion order.
type Result[T, R any] struct {
	RunID     string
	Operation OperationType

	// Success is true when no item failed permanently and the run was not aborted.
	Success bool

	// Aborted is true when some items were never attempted, either because of
	// fail-fast or because the context was cancelled.
	Aborted bool

	// Canceled is true when the context ended the run early.
	Canceled bool

	TotalInput      int
	TotalProcessed  int
	SuccessfulItems []ItemOutcome[T, R]
	FailedItems     []ItemOutcome[T, R]

	// SuccessRate is the rounded percentage of processed items that succeeded.
	SuccessRate float64

	StartedAt      time.Time
	ProcessingTime time.Duration
}

// ProcessingTimeMs returns ProcessingTime in milliseconds, rounded up so any
// elapsed time reports at least 1.
func (r *Result[T, R]) ProcessingTimeMs() int64 {
	if r.ProcessingTime <= 0 {
		return 0
	}
	return int64((r.ProcessingTime + time.Millisecond - 1) / time.Millisecond)
}

// Err joins the errors of all permanently failed items, or returns nil.
func (r *Result[T, R]) Err() error {
	if len(r.FailedItems) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.FailedItems))
	for _, f := range r.FailedItems {
		errs = append(errs, fmt.Errorf("item %d: %w", f.Index, f.Err))
	}
	return errors.Join(errs...)
}

// SortByIndex orders both outcome slices by input position.
func (r *Result[T, R]) SortByIndex() {
	byIndex := func(a, b ItemOutcome[T, R]) int { return a.Index - b.Index }
	slices.SortFunc(r.SuccessfulItems, byIndex)
	slices.SortFunc(r.FailedItems, byIndex)
}

// Summary drops the typed items and values, keeping what reports and
// renderers need.
func (r *Result[T, R]) Summary() Summary {
	failures := make([]FailureSummary, 0, len(r.FailedItems))
	for _, f := range r.FailedItems {
		failures = append(failures, FailureSummary{
			Index:    f.Index,
			Message:  f.ErrorMessage,
			Attempts: f.Attempts,
		})
	}
	slices.SortFunc(failures, func(a, b FailureSummary) int { return a.Index - b.Index })

	return Summary{
		RunID:            r.RunID,
		Operation:        r.Operation,
		Success:          r.Success,
		Aborted:          r.Aborted,
		Canceled:         r.Canceled,
		TotalInput:       r.TotalInput,
		TotalProcessed:   r.TotalProcessed,
		Succeeded:        len(r.SuccessfulItems),
		Failed:           len(r.FailedItems),
		SuccessRate:      r.SuccessRate,
		StartedAt:        r.StartedAt,
		ProcessingTimeMs: r.ProcessingTimeMs(),
		Failures:         failures,
	}
}

// Summary is the untyped, serializable form of a Result.
type Summary struct {
	RunID            string           `json:"run_id"`
	Operation        OperationType    `json:"operation"`
	Success          bool             `json:"success"`
	Aborted          bool             `json:"aborted"`
	Canceled         bool             `json:"canceled"`
	TotalInput       int              `json:"total_input"`
	TotalProcessed   int              `json:"total_processed"`
	Succeeded        int              `json:"succeeded"`
	Failed           int              `json:"failed"`
	SuccessRate      float64          `json:"success_rate"`
	StartedAt        time.Time        `json:"started_at"`
	ProcessingTimeMs int64            `json:"processing_time_ms"`
	Failures         []FailureSummary `json:"failures,omitempty"`
}

// FailureSummary describes one permanently failed item.
type FailureSummary struct {
	Index    int    `json:"index"`
	Message  string `json:"message"`
	Attempts int    `json:"attempts"`
}

// successRate returns round(succeeded/processed*100), 0 when nothing was processed.
func successRate(succeeded, processed int) float64 {
	if processed == 0 {
		return 0
	}
	return math.Round(float64(succeeded) / float64(processed) * percentMultiplier)
}

// aggregator accumulates outcomes and emits progress. mu guards both so
// progress callbacks are serialized and always see consistent counts.
type aggregator[T, R any] struct {
	mu sync.Mutex

	operation    OperationType
	total        int
	totalBatches int
	currentBatch int
	startedAt    time.Time

	successes []ItemOutcome[T, R]
	failures  []ItemOutcome[T, R]

	onProgress ProgressFunc
	logger     zerolog.Logger
}

func newAggregator[T, R any](
	op OperationType,
	total, totalBatches int,
	startedAt time.Time,
	onProgress ProgressFunc,
	logger zerolog.Logger,
) *aggregator[T, R] {
	return &aggregator[T, R]{
		operation:    op,
		total:        total,
		totalBatches: totalBatches,
		startedAt:    startedAt,
		onProgress:   onProgress,
		logger:       logger,
	}
}

// startBatch records the 1-based batch now being drained.
func (a *aggregator[T, R]) startBatch(batch int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentBatch = batch
}

// record stores an outcome and notifies the progress callback.
func (a *aggregator[T, R]) record(outcome ItemOutcome[T, R]) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if outcome.Err != nil {
		a.failures = append(a.failures, outcome)
	} else {
		a.successes = append(a.successes, outcome)
	}

	if a.onProgress != nil {
		a.notify(a.snapshotLocked())
	}
}

// snapshotLocked must be called with mu held.
func (a *aggregator[T, R]) snapshotLocked() ProgressSnapshot {
	processed := len(a.successes) + len(a.failures)
	return ProgressSnapshot{
		Operation:    a.operation,
		Processed:    processed,
		Total:        a.total,
		Percentage:   percentComplete(processed, a.total),
		CurrentBatch: a.currentBatch,
		TotalBatches: a.totalBatches,
		Succeeded:    len(a.successes),
		Failed:       len(a.failures),
		Elapsed:      time.Since(a.startedAt),
	}
}

// notify runs the callback, recovering from a panic so a faulty callback
// cannot take the run down.
func (a *aggregator[T, R]) notify(snapshot ProgressSnapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Warn().
				Interface("panic", rec).
				Int("processed", snapshot.Processed).
				Msg("progress callback panicked")
		}
	}()
	a.onProgress(snapshot)
}

// result builds the final Result. halted reports whether the executor stopped
// before draining every batch.
func (a *aggregator[T, R]) result(runID string, halted, canceled bool) *Result[T, R] {
	a.mu.Lock()
	defer a.mu.Unlock()

	processed := len(a.successes) + len(a.failures)
	aborted := halted && processed < a.total

	return &Result[T, R]{
		RunID:           runID,
		Operation:       a.operation,
		Success:         len(a.failures) == 0 && !aborted,
		Aborted:         aborted,
		Canceled:        canceled && aborted,
		TotalInput:      a.total,
		TotalProcessed:  processed,
		SuccessfulItems: slices.Clone(a.successes),
		FailedItems:     slices.Clone(a.failures),
		SuccessRate:     successRate(len(a.successes), processed),
		StartedAt:       a.startedAt,
		ProcessingTime:  time.Since(a.startedAt),
	}
}
