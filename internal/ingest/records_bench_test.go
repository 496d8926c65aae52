package ingest_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rshade/bulkrun/internal/ingest"
)

func generateRecords(count int, sep string) []byte {
	lines := make([]string, count)
	for i := range lines {
		lines[i] = fmt.Sprintf(`{"id":"user-%d","name":"User %d","email":"user%d@example.com","active":true}`, i, i, i)
	}
	return []byte(strings.Join(lines, sep))
}

func BenchmarkParse_JSON(b *testing.B) {
	data := []byte("[" + string(generateRecords(1000, ",")) + "]")
	b.ReportAllocs()

	for b.Loop() {
		if _, err := ingest.Parse(data, ingest.FormatJSON); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParse_NDJSON(b *testing.B) {
	data := generateRecords(10000, "\n")
	b.ReportAllocs()

	for b.Loop() {
		if _, err := ingest.Parse(data, ingest.FormatNDJSON); err != nil {
			b.Fatal(err)
		}
	}
}
