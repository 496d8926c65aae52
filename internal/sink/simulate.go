package sink

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/rshade/bulkrun/internal/config"
	"github.com/rshade/bulkrun/internal/ingest"
)

// Record fields the simulator honours.
const (
	fieldFail         = "fail"
	fieldFailAttempts = "fail_attempts"
)

// ErrSimulated is the error returned for simulated failures.
var ErrSimulated = errors.New("simulated failure")

// SimulateSink fakes work. A record fails when it has "fail": true, while it
// has remaining "fail_attempts", or when the hash of its canonical JSON falls
// under the configured failure rate. Records with identical content share an
// outcome regardless of their position in the input.
type SimulateSink struct {
	delay       time.Duration
	failureRate float64

	mu       sync.Mutex
	attempts map[string]int
}

// NewSimulateSink returns a SimulateSink.
func NewSimulateSink(cfg config.SimulateSinkConfig) *SimulateSink {
	return &SimulateSink{
		delay:       cfg.Delay,
		failureRate: cfg.FailureRate,
		attempts:    map[string]int{},
	}
}

// Name implements Sink.
func (s *SimulateSink) Name() string {
	return config.SinkSimulate
}

// Execute waits for the configured delay, then succeeds or fails.
func (s *SimulateSink) Execute(ctx context.Context, rec ingest.Record) (Response, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Response{}, ctx.Err()
		case <-timer.C:
		}
	}

	payload, err := canonicalJSON(rec)
	if err != nil {
		return Response{}, err
	}
	key := string(payload)

	if fail, _ := rec[fieldFail].(bool); fail {
		return Response{}, fmt.Errorf("%w: record %s is marked to fail", ErrSimulated, label(rec))
	}

	if limit := failAttempts(rec[fieldFailAttempts]); limit > 0 {
		s.mu.Lock()
		s.attempts[key]++
		n := s.attempts[key]
		s.mu.Unlock()
		if n <= limit {
			return Response{}, fmt.Errorf("%w: record %s attempt %d of %d failing", ErrSimulated, label(rec), n, limit)
		}
	}

	if s.failureRate > 0 && bucket(payload) < s.failureRate {
		return Response{}, fmt.Errorf("%w: record %s", ErrSimulated, label(rec))
	}

	return Response{Output: "ok " + label(rec)}, nil
}

// bucket maps data onto [0, 1).
func bucket(data []byte) float64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return float64(h.Sum64()) / (math.MaxUint64 + 1.0)
}

// failAttempts reads an integer from a decoded JSON or YAML value.
func failAttempts(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	default:
		return 0
	}
}

func label(rec ingest.Record) string {
	if id := rec.ID(); id != "" {
		return id
	}
	return "(no id)"
}
