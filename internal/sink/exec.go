package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rshade/bulkrun/internal/config"
	"github.com/rshade/bulkrun/internal/ingest"
	"github.com/rshade/bulkrun/internal/logging"
	"github.com/rshade/bulkrun/pkg/bulk"
)

// Environment variables set for every command.
const (
	EnvOperation = "BULKRUN_OPERATION"
	EnvRecordID  = "BULKRUN_RECORD_ID"
)

// processWaitDelay bounds how long Wait blocks on I/O after the process is killed.
const processWaitDelay = 100 * time.Millisecond

// ErrCommandFailed wraps non-zero exits.
var ErrCommandFailed = errors.New("command failed")

// ExecSink runs a command per record with the record's JSON on stdin.
type ExecSink struct {
	command string
	args    []string
	timeout time.Duration
	op      bulk.OperationType
}

// NewExecSink returns an ExecSink for op.
func NewExecSink(cfg config.ExecSinkConfig, op bulk.OperationType) (*ExecSink, error) {
	if cfg.Command == "" {
		return nil, errors.New("exec sink: command is required")
	}
	return &ExecSink{
		command: cfg.Command,
		args:    cfg.Args,
		timeout: cfg.Timeout,
		op:      op,
	}, nil
}

// Name implements Sink.
func (s *ExecSink) Name() string {
	return config.SinkExec
}

// Execute runs the command once for rec.
func (s *ExecSink) Execute(ctx context.Context, rec ingest.Record) (Response, error) {
	payload, err := canonicalJSON(rec)
	if err != nil {
		return Response{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	//nolint:gosec // The command comes from the user's own configuration.
	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Env = append(os.Environ(),
		EnvOperation+"="+s.op.String(),
		EnvRecordID+"="+rec.ID(),
	)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = processWaitDelay

	logger := logging.FromContext(ctx)
	logger.Debug().
		Str("component", "sink").
		Str("command", s.command).
		Str("record_id", rec.ID()).
		Msg("running command")

	if err = cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Response{}, fmt.Errorf("%s: %w", s.command, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				return Response{}, fmt.Errorf("%w: %s exited with code %d", ErrCommandFailed, s.command, exitErr.ExitCode())
			}
			return Response{}, fmt.Errorf("%w: %s exited with code %d: %s",
				ErrCommandFailed, s.command, exitErr.ExitCode(), snippet(msg))
		}
		return Response{}, fmt.Errorf("running %s: %w", s.command, err)
	}

	return Response{Output: strings.TrimSpace(stdout.String())}, nil
}
