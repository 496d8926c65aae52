// Package bulk runs a caller-supplied operation across a large set of items.
//
// The processor is handler agnostic: it never looks at what a handler does, only at
// whether it returned an error. Key features:
//   - Fixed-size batching with an optional pause between batches
//   - Sequential or bounded-parallel execution (at most MaxConcurrency handlers in flight)
//   - Per-item retry with an optional exponential backoff
//   - Continue-on-error or fail-fast partial failure semantics
//   - Serialized progress callbacks after every settled item
//
// Every call to Process owns its own gate, aggregator and progress state, so
// concurrent callers never share counters or concurrency limits.
//
// Configuration mistakes (negative sizes, a nil handler) are returned as errors.
// Item failures never are: they are recorded in the returned Result.
package bulk
