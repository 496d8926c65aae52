package bulk

import "context"

// Handler is the per-item operation. It is invoked once per attempt and may be
// called from several goroutines at once when parallel execution is enabled.
type Handler[T, R any] func(ctx context.Context, item T) (R, error)

// Executor is the interface form of Handler for callers that carry state
// (clients, connections) in a struct.
type Executor[T, R any] interface {
	Execute(ctx context.Context, item T) (R, error)
}

// Execute implements Executor so a plain function can be used where an
// Executor is expected.
func (h Handler[T, R]) Execute(ctx context.Context, item T) (R, error) {
	return h(ctx, item)
}

// FromExecutor adapts an Executor to a Handler. A nil executor yields a nil
// Handler, which Process rejects with ErrNilHandler.
func FromExecutor[T, R any](e Executor[T, R]) Handler[T, R] {
	if e == nil {
		return nil
	}
	return e.Execute
}
