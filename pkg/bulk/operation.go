package bulk

import (
	"context"
	"fmt"
	"strings"
)

// OperationType labels a bulk run. It is carried through logs, progress
// snapshots and results but never changes how items are processed.
type OperationType string

// Known operation types.
const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// String implements fmt.Stringer.
func (o OperationType) String() string {
	return string(o)
}

// ParseOperationType converts user input into one of the known operation types.
func ParseOperationType(s string) (OperationType, error) {
	switch op := OperationType(strings.ToLower(strings.TrimSpace(s))); op {
	case OperationCreate, OperationUpdate, OperationDelete:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
}

// Create runs handler over items tagged as a create operation.
func Create[T, R any](ctx context.Context, items []T, handler Handler[T, R], opts ...Option) (*Result[T, R], error) {
	return Process(ctx, OperationCreate, items, handler, opts...)
}

// Update runs handler over items tagged as an update operation.
func Update[T, R any](ctx context.Context, items []T, handler Handler[T, R], opts ...Option) (*Result[T, R], error) {
	return Process(ctx, OperationUpdate, items, handler, opts...)
}

// Delete runs handler over items tagged as a delete operation.
func Delete[T, R any](ctx context.Context, items []T, handler Handler[T, R], opts ...Option) (*Result[T, R], error) {
	return Process(ctx, OperationDelete, items, handler, opts...)
}
