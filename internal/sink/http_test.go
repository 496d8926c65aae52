package sink_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bulkrun/internal/config"
	"github.com/rshade/bulkrun/internal/ingest"
	"github.com/rshade/bulkrun/internal/sink"
	"github.com/rshade/bulkrun/pkg/bulk"
)

type capturedRequest struct {
	Method string
	Path   string
	Body   string
	Header http.Header
}

func newRecordingServer(t *testing.T, status int, reply string) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   string(body),
			Header: r.Header.Clone(),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), requests...)
	}
}

// TestHTTPSink_MethodsPerOperation verifies each operation maps to its HTTP verb.
func TestHTTPSink_MethodsPerOperation(t *testing.T) {
	tests := []struct {
		op       bulk.OperationType
		method   string
		withBody bool
	}{
		{op: bulk.OperationCreate, method: http.MethodPost, withBody: true},
		{op: bulk.OperationUpdate, method: http.MethodPut, withBody: true},
		{op: bulk.OperationDelete, method: http.MethodDelete, withBody: false},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			srv, requests := newRecordingServer(t, http.StatusOK, `{"ok":true}`)
			s, err := sink.NewHTTPSink(config.HTTPSinkConfig{
				URL:     srv.URL + "/users/{id}",
				Headers: map[string]string{"Authorization": "Bearer t0ken"},
			}, tt.op, srv.Client())
			require.NoError(t, err)

			resp, err := s.Execute(context.Background(), ingest.Record{"id": "u 1", "name": "ada"})
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `{"ok":true}`, resp.Output)

			got := requests()
			require.Len(t, got, 1)
			assert.Equal(t, tt.method, got[0].Method)
			assert.Equal(t, "/users/u 1", got[0].Path)
			assert.Equal(t, "Bearer t0ken", got[0].Header.Get("Authorization"))
			assert.NotEmpty(t, got[0].Header.Get("Idempotency-Key"))
			if tt.withBody {
				assert.JSONEq(t, `{"id":"u 1","name":"ada"}`, got[0].Body)
				assert.Equal(t, "application/json", got[0].Header.Get("Content-Type"))
			} else {
				assert.Empty(t, got[0].Body)
			}
		})
	}
}

func TestHTTPSink_NonSuccessStatus(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusUnprocessableEntity, `{"error":"email is invalid"}`)
	s, err := sink.NewHTTPSink(config.HTTPSinkConfig{URL: srv.URL}, bulk.OperationCreate, srv.Client())
	require.NoError(t, err)

	_, err = s.Execute(context.Background(), ingest.Record{"email": "nope"})
	require.Error(t, err)

	var statusErr *sink.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "email is invalid")
}

func TestHTTPSink_MissingID(t *testing.T) {
	s, err := sink.NewHTTPSink(config.HTTPSinkConfig{URL: "http://localhost/users/{id}"}, bulk.OperationDelete, nil)
	require.NoError(t, err)

	_, err = s.Execute(context.Background(), ingest.Record{"name": "ada"})
	require.ErrorIs(t, err, sink.ErrMissingID)
}

func TestHTTPSink_IdempotencyKeyStableAcrossAttempts(t *testing.T) {
	srv, requests := newRecordingServer(t, http.StatusCreated, "")
	s, err := sink.NewHTTPSink(config.HTTPSinkConfig{URL: srv.URL}, bulk.OperationCreate, srv.Client())
	require.NoError(t, err)

	rec := ingest.Record{"id": 1, "name": "ada"}
	for range 2 {
		_, err = s.Execute(context.Background(), rec)
		require.NoError(t, err)
	}
	_, err = s.Execute(context.Background(), ingest.Record{"id": 2, "name": "grace"})
	require.NoError(t, err)

	got := requests()
	require.Len(t, got, 3)
	assert.Equal(t, got[0].Header.Get("Idempotency-Key"), got[1].Header.Get("Idempotency-Key"))
	assert.NotEqual(t, got[0].Header.Get("Idempotency-Key"), got[2].Header.Get("Idempotency-Key"))

	payload, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, sink.IdempotencyKey(bulk.OperationCreate, payload), got[0].Header.Get("Idempotency-Key"))
	assert.NotEqual(t,
		sink.IdempotencyKey(bulk.OperationCreate, payload),
		sink.IdempotencyKey(bulk.OperationUpdate, payload))
}

func TestIdempotencyKey_SharedByIdenticalRecords(t *testing.T) {
	a, err := json.Marshal(ingest.Record{"id": 1, "name": "ada"})
	require.NoError(t, err)
	b, err := json.Marshal(ingest.Record{"name": "ada", "id": 1})
	require.NoError(t, err)
	c, err := json.Marshal(ingest.Record{"id": 1, "name": "grace"})
	require.NoError(t, err)

	assert.Equal(t, sink.IdempotencyKey(bulk.OperationCreate, a), sink.IdempotencyKey(bulk.OperationCreate, b))
	assert.NotEqual(t, sink.IdempotencyKey(bulk.OperationCreate, a), sink.IdempotencyKey(bulk.OperationCreate, c))
}

func TestHTTPSink_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	s, err := sink.NewHTTPSink(config.HTTPSinkConfig{URL: srv.URL, Timeout: 50 * time.Millisecond}, bulk.OperationCreate, nil)
	require.NoError(t, err)

	_, err = s.Execute(context.Background(), ingest.Record{"id": 1})
	require.Error(t, err)
}

func TestNewHTTPSink_Errors(t *testing.T) {
	_, err := sink.NewHTTPSink(config.HTTPSinkConfig{}, bulk.OperationCreate, nil)
	require.Error(t, err)

	_, err = sink.NewHTTPSink(config.HTTPSinkConfig{URL: "http://x"}, bulk.OperationType("upsert"), nil)
	require.ErrorIs(t, err, bulk.ErrUnknownOperation)

	_, err = sink.NewHTTPSink(config.HTTPSinkConfig{URL: "http://bad host/\x7f"}, bulk.OperationCreate, nil)
	require.Error(t, err)
}

// TestHTTPSink_WithProcess drives the sink through the bulk processor.
func TestHTTPSink_WithProcess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/3" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	s, err := sink.NewHTTPSink(config.HTTPSinkConfig{URL: srv.URL + "/users/{id}"}, bulk.OperationDelete, srv.Client())
	require.NoError(t, err)

	records := []ingest.Record{{"id": 1}, {"id": 2}, {"id": 3}, {"id": 4}}
	result, err := bulk.Delete(context.Background(), records, bulk.FromExecutor[ingest.Record, sink.Response](s),
		bulk.WithMaxConcurrency(2), bulk.WithBatchSize(2))
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalProcessed)
	assert.Len(t, result.SuccessfulItems, 3)
	require.Len(t, result.FailedItems, 1)
	assert.Equal(t, 2, result.FailedItems[0].Index)
	assert.Equal(t, float64(75), result.SuccessRate)
}
