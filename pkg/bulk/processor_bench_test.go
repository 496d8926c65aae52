package bulk_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/rshade/bulkrun/pkg/bulk"
)

// BenchmarkProcess_Sequential measures per-item overhead without concurrency.
func BenchmarkProcess_Sequential(b *testing.B) {
	items := makeItems(1000)
	b.ReportAllocs()

	for b.Loop() {
		if _, err := bulk.Process(context.Background(), bulk.OperationCreate, items, double,
			bulk.WithBatchSize(100)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkProcess_Parallel measures the bounded-parallel executor at several limits.
func BenchmarkProcess_Parallel(b *testing.B) {
	items := makeItems(1000)

	for _, limit := range []int{1, 8, 64} {
		b.Run(fmt.Sprintf("concurrency_%d", limit), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := bulk.Process(context.Background(), bulk.OperationUpdate, items, double,
					bulk.WithBatchSize(250), bulk.WithMaxConcurrency(limit)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkProcess_WithProgress includes the cost of serialized progress callbacks.
func BenchmarkProcess_WithProgress(b *testing.B) {
	items := makeItems(1000)
	var last bulk.ProgressSnapshot
	b.ReportAllocs()

	for b.Loop() {
		if _, err := bulk.Process(context.Background(), bulk.OperationDelete, items, double,
			bulk.WithParallel(true),
			bulk.WithProgress(func(s bulk.ProgressSnapshot) { last = s })); err != nil {
			b.Fatal(err)
		}
	}
	_ = last
}
