package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitCodeOK},
		{"plain error", errors.New("boom"), ExitCodeError},
		{"exit error", &ExitError{Code: ExitCodeFailures, Err: errors.New("2 failed")}, ExitCodeFailures},
		{"wrapped exit error", fmt.Errorf("outer: %w", &ExitError{Code: 3}), 3},
		{"joined exit error", errors.Join(errors.New("x"), &ExitError{Code: ExitCodeFailures}), ExitCodeFailures},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestExitError_Message(t *testing.T) {
	inner := errors.New("3 of 10 records failed")
	err := &ExitError{Code: ExitCodeFailures, Err: inner}

	assert.Equal(t, "3 of 10 records failed", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "exit code 2", (&ExitError{Code: 2}).Error())
}
