package cli

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitCodeOK       = 0
	ExitCodeError    = 1
	ExitCodeFailures = 2
)

// ExitError carries a specific exit code out of a command. It is returned
// when a run completes but some items failed or the run was aborted.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCodeError
}
