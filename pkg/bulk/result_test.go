package bulk_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bulkrun/pkg/bulk"
)

func TestResult_ProcessingTimeMs(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    int64
	}{
		{name: "zero", elapsed: 0, want: 0},
		{name: "sub millisecond rounds up", elapsed: 200 * time.Microsecond, want: 1},
		{name: "exact", elapsed: 15 * time.Millisecond, want: 15},
		{name: "partial rounds up", elapsed: 15*time.Millisecond + 1, want: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &bulk.Result[int, int]{ProcessingTime: tt.elapsed}
			assert.Equal(t, tt.want, r.ProcessingTimeMs())
		})
	}
}

func TestResult_Summary(t *testing.T) {
	handler := func(_ context.Context, item int) (string, error) {
		if item%2 == 0 {
			return "", errors.New("even items are rejected")
		}
		return "ok", nil
	}

	result, err := bulk.Process(context.Background(), bulk.OperationDelete, []int{1, 2, 3, 4}, handler,
		bulk.WithMaxConcurrency(4))
	require.NoError(t, err)

	summary := result.Summary()
	assert.Equal(t, result.RunID, summary.RunID)
	assert.Equal(t, bulk.OperationDelete, summary.Operation)
	assert.False(t, summary.Success)
	assert.Equal(t, 4, summary.TotalInput)
	assert.Equal(t, 4, summary.TotalProcessed)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.InDelta(t, 50.0, summary.SuccessRate, 0)
	require.Len(t, summary.Failures, 2)
	assert.Equal(t, 1, summary.Failures[0].Index)
	assert.Equal(t, 3, summary.Failures[1].Index)
	assert.Equal(t, "even items are rejected", summary.Failures[0].Message)
	assert.Equal(t, 1, summary.Failures[0].Attempts)
}

func TestResult_ErrNilWhenNothingFailed(t *testing.T) {
	result, err := bulk.Process(context.Background(), bulk.OperationCreate, []int{1, 2}, double)
	require.NoError(t, err)
	assert.NoError(t, result.Err())
}

func TestProgressSnapshot_Estimates(t *testing.T) {
	s := bulk.ProgressSnapshot{Processed: 5, Total: 10, Elapsed: time.Second}

	assert.False(t, s.IsComplete())
	assert.InDelta(t, 5.0, s.ItemsPerSecond(), 0.001)
	assert.Equal(t, time.Second, s.EstimatedTimeRemaining())

	done := bulk.ProgressSnapshot{Processed: 10, Total: 10, Elapsed: time.Second}
	assert.True(t, done.IsComplete())
	assert.Equal(t, time.Duration(0), done.EstimatedTimeRemaining())
	assert.InDelta(t, 0.0, bulk.ProgressSnapshot{}.ItemsPerSecond(), 0)
}
