package sink

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rshade/bulkrun/internal/config"
	"github.com/rshade/bulkrun/internal/ingest"
	"github.com/rshade/bulkrun/pkg/bulk"
)

// maxSnippet bounds the body or stderr text copied into errors.
const maxSnippet = 200

var (
	// ErrUnknownSink is returned by New for an unrecognised sink type.
	ErrUnknownSink = errors.New("unknown sink type")

	// ErrMissingID is returned when a URL template needs an id the record lacks.
	ErrMissingID = errors.New("record has no id")
)

// Response is what a sink reports for one successful record.
type Response struct {
	// StatusCode is the HTTP status, zero for non-HTTP sinks.
	StatusCode int `json:"status_code,omitempty"`

	// Output is the response body or command stdout, trimmed.
	Output string `json:"output,omitempty"`
}

// Sink handles one record for a fixed operation.
type Sink interface {
	bulk.Executor[ingest.Record, Response]

	// Name identifies the sink in logs and summaries.
	Name() string
}

// New builds the sink selected by cfg.Type for op.
func New(cfg config.SinkConfig, op bulk.OperationType) (Sink, error) {
	switch cfg.Type {
	case config.SinkHTTP:
		return NewHTTPSink(cfg.HTTP, op, nil)
	case config.SinkExec:
		return NewExecSink(cfg.Exec, op)
	case config.SinkSimulate:
		return NewSimulateSink(cfg.Simulate), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, cfg.Type)
	}
}

// canonicalJSON renders a record with sorted keys so equal records encode
// identically.
func canonicalJSON(rec ingest.Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return data, nil
}

// snippet trims s to maxSnippet runes.
func snippet(s string) string {
	r := []rune(s)
	if len(r) <= maxSnippet {
		return s
	}
	return string(r[:maxSnippet]) + "..."
}

// Compile-time interface checks.
var (
	_ Sink = (*HTTPSink)(nil)
	_ Sink = (*ExecSink)(nil)
	_ Sink = (*SimulateSink)(nil)
)
