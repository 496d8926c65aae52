package report

import (
	"time"

	"github.com/rshade/bulkrun/pkg/bulk"
)

// Entry is one stored run report.
type Entry struct {
	// RunID is the bulk run's ULID and the entry's key.
	RunID string `json:"run_id"`

	// TraceID ties the report to the CLI invocation's log lines.
	TraceID string `json:"trace_id,omitempty"`

	// Input is the path the records were read from.
	Input string `json:"input,omitempty"`

	// Sink names the handler that processed the records.
	Sink string `json:"sink,omitempty"`

	Summary bulk.Summary `json:"summary"`

	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is zero when the report never expires.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Metadata describes where a run came from.
type Metadata struct {
	TraceID string
	Input   string
	Sink    string
}

// NewEntry builds an entry for summary created at now. A retention of zero
// keeps the report forever.
func NewEntry(summary bulk.Summary, meta Metadata, now time.Time, retention time.Duration) *Entry {
	e := &Entry{
		RunID:     summary.RunID,
		TraceID:   meta.TraceID,
		Input:     meta.Input,
		Sink:      meta.Sink,
		Summary:   summary,
		CreatedAt: now.UTC(),
	}
	if retention > 0 {
		e.ExpiresAt = e.CreatedAt.Add(retention)
	}
	return e
}

// IsExpired reports whether the entry has expired at now.
func (e *Entry) IsExpired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Age returns the time since the entry was created.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
