package tui

import (
	"os"

	"golang.org/x/term"
)

// OutputMode selects how results are rendered.
type OutputMode int

const (
	// OutputModePlain prints unstyled text.
	OutputModePlain OutputMode = iota
	// OutputModeStyled prints lipgloss styled text without a live view.
	OutputModeStyled
	// OutputModeInteractive runs the Bubble Tea progress view.
	OutputModeInteractive
)

// String implements fmt.Stringer.
func (m OutputMode) String() string {
	switch m {
	case OutputModePlain:
		return "plain"
	case OutputModeStyled:
		return "styled"
	case OutputModeInteractive:
		return "interactive"
	default:
		return "unknown"
	}
}

// Terminal describes the environment the mode is resolved against.
type Terminal struct {
	StdoutTTY bool
	StdinTTY  bool

	// NoColor is set when NO_COLOR is present or TERM is "dumb".
	NoColor bool

	// CI is set when running under a CI system.
	CI bool
}

// CurrentTerminal inspects the process's stdin, stdout and environment.
func CurrentTerminal() Terminal {
	_, noColor := os.LookupEnv("NO_COLOR")
	_, ci := os.LookupEnv("CI")
	return Terminal{
		StdoutTTY: term.IsTerminal(int(os.Stdout.Fd())),
		StdinTTY:  term.IsTerminal(int(os.Stdin.Fd())),
		NoColor:   noColor || os.Getenv("TERM") == "dumb",
		CI:        ci,
	}
}

// DetectOutputMode resolves the mode for the current process.
func DetectOutputMode(forcePlain, noColor bool) OutputMode {
	return ResolveOutputMode(CurrentTerminal(), forcePlain, noColor)
}

// ResolveOutputMode picks a mode for t. Plain wins whenever output is not a
// terminal or color is disabled; the live view also needs a terminal on stdin
// and is skipped under CI.
func ResolveOutputMode(t Terminal, forcePlain, noColor bool) OutputMode {
	switch {
	case forcePlain, noColor, t.NoColor, !t.StdoutTTY:
		return OutputModePlain
	case t.CI, !t.StdinTTY:
		return OutputModeStyled
	default:
		return OutputModeInteractive
	}
}
