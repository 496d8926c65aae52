package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/rshade/bulkrun/internal/config"
	"github.com/rshade/bulkrun/internal/ingest"
	"github.com/rshade/bulkrun/internal/logging"
	"github.com/rshade/bulkrun/pkg/bulk"
)

const (
	idPlaceholder     = "{id}"
	maxResponseBytes  = 64 * 1024
	headerIdempotency = "Idempotency-Key"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPSink sends each record to an HTTP endpoint. Create maps to POST,
// update to PUT and delete to DELETE.
type HTTPSink struct {
	client   *http.Client
	op       bulk.OperationType
	method   string
	template string
	headers  map[string]string
}

// NewHTTPSink returns an HTTPSink for op. A nil client gets one with
// cfg.Timeout.
func NewHTTPSink(cfg config.HTTPSinkConfig, op bulk.OperationType, client *http.Client) (*HTTPSink, error) {
	if cfg.URL == "" {
		return nil, errors.New("http sink: url is required")
	}
	if _, err := url.Parse(strings.ReplaceAll(cfg.URL, idPlaceholder, "x")); err != nil {
		return nil, fmt.Errorf("http sink: invalid url: %w", err)
	}

	method, err := methodFor(op)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &HTTPSink{
		client:   client,
		op:       op,
		method:   method,
		template: cfg.URL,
		headers:  cfg.Headers,
	}, nil
}

func methodFor(op bulk.OperationType) (string, error) {
	switch op {
	case bulk.OperationCreate:
		return http.MethodPost, nil
	case bulk.OperationUpdate:
		return http.MethodPut, nil
	case bulk.OperationDelete:
		return http.MethodDelete, nil
	default:
		return "", fmt.Errorf("http sink: %w: %q", bulk.ErrUnknownOperation, op)
	}
}

// Name implements Sink.
func (s *HTTPSink) Name() string {
	return config.SinkHTTP
}

// Execute sends one request for rec.
func (s *HTTPSink) Execute(ctx context.Context, rec ingest.Record) (Response, error) {
	target, err := s.resolveURL(rec)
	if err != nil {
		return Response{}, err
	}

	payload, err := canonicalJSON(rec)
	if err != nil {
		return Response{}, err
	}

	var body io.Reader
	if s.op != bulk.OperationDelete {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, s.method, target, body)
	if err != nil {
		return Response{}, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerIdempotency, IdempotencyKey(s.op, payload))
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	log := logging.FromContext(ctx)
	log.Debug().
		Str("component", "sink").
		Str("method", s.method).
		Str("url", target).
		Msg("sending record")

	resp, err := s.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", s.method, target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}
	text := strings.TrimSpace(string(raw))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Response{}, &StatusError{StatusCode: resp.StatusCode, Body: snippet(text)}
	}

	return Response{StatusCode: resp.StatusCode, Output: text}, nil
}

// resolveURL fills the {id} placeholder from the record.
func (s *HTTPSink) resolveURL(rec ingest.Record) (string, error) {
	if !strings.Contains(s.template, idPlaceholder) {
		return s.template, nil
	}
	id := rec.ID()
	if id == "" {
		return "", ErrMissingID
	}
	return strings.ReplaceAll(s.template, idPlaceholder, url.PathEscape(id)), nil
}

// IdempotencyKey derives a stable UUIDv5 from the operation and record
// payload, so every attempt for the same record sends the same key.
// Records with identical canonical payloads share a key and are treated
// by the server as one write.
func IdempotencyKey(op bulk.OperationType, payload []byte) string {
	name := append([]byte(op.String()+":"), payload...)
	return uuid.NewSHA1(uuid.NameSpaceURL, name).String()
}
