package cli

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/bulkrun/internal/logging"
	"github.com/rshade/bulkrun/internal/tui"
	"github.com/rshade/bulkrun/pkg/bulk"
)

// progressStep is the percentage between plain progress lines.
const progressStep = 10

// progressPrinter writes a line every progressStep percent and on completion.
// The processor serializes callbacks, so it needs no locking.
type progressPrinter struct {
	w    io.Writer
	next float64
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, next: progressStep}
}

func (p *progressPrinter) print(s bulk.ProgressSnapshot) {
	if s.Percentage < p.next && !s.IsComplete() {
		return
	}
	for p.next <= s.Percentage {
		p.next += progressStep
	}
	_, _ = fmt.Fprintln(p.w, tui.FormatProgressLine(s))
}

type executeFunc func(ctx context.Context, onProgress bulk.ProgressFunc) (*runResult, error)

type runOutput struct {
	result *runResult
	err    error
}

// runInteractive shows the live progress view while execute runs in the
// background. Quitting the view cancels the run; the view stays up until the
// processor has returned.
func runInteractive(
	ctx context.Context,
	cmd *cobra.Command,
	op bulk.OperationType,
	total int,
	execute executeFunc,
) (*runResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.NewProgressModel(ctx, op, total, cancel)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithOutput(cmd.ErrOrStderr()),
	)

	done := make(chan runOutput, 1)
	go func() {
		result, err := execute(runCtx, func(s bulk.ProgressSnapshot) {
			program.Send(tui.ProgressMsg{Snapshot: s})
		})
		if result != nil {
			program.Send(tui.DoneMsg{Summary: result.Summary()})
		} else {
			program.Quit()
		}
		done <- runOutput{result: result, err: err}
	}()

	if _, err := program.Run(); err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Msg("progress view failed, waiting for run")
		cancel()
	}

	out := <-done
	if out.err != nil {
		return nil, out.err
	}
	if out.result == nil {
		return nil, errNoResult
	}
	return out.result, nil
}
