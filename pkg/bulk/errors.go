package bulk

import "errors"

// Configuration errors returned by Process. They indicate programmer error and
// are never produced by handler failures.
var (
	ErrNilHandler         = errors.New("bulk handler cannot be nil")
	ErrInvalidBatchSize   = errors.New("batch size must be >= 1, or 0 for a single batch")
	ErrInvalidConcurrency = errors.New("max concurrency must be >= 1, or 0 for unbounded")
	ErrInvalidRetries     = errors.New("max retries must be >= 0")
	ErrInvalidDelay       = errors.New("delay must be >= 0")
	ErrUnknownOperation   = errors.New("unknown operation type")
)

// ErrHandlerPanic wraps a value recovered from a panicking handler.
var ErrHandlerPanic = errors.New("handler panicked")
