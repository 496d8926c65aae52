package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/bulkrun/pkg/bulk"
)

// maxListedFailures caps the failures printed in a summary.
const maxListedFailures = 20

//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// Status returns a one-word run status.
func Status(s bulk.Summary) string {
	switch {
	case s.Canceled:
		return "canceled"
	case s.Aborted:
		return "aborted"
	case s.Success:
		return "succeeded"
	default:
		return "completed with failures"
	}
}

// RenderSummary writes the final summary of a run to w.
func RenderSummary(w io.Writer, s bulk.Summary, styled bool) error {
	var body string
	if styled {
		body = renderStyledSummary(s)
	} else {
		body = renderPlainSummary(s)
	}
	_, err := io.WriteString(w, body)
	return err
}

func summaryLines(s bulk.Summary) []string {
	return []string{
		fmt.Sprintf("Run:          %s", s.RunID),
		fmt.Sprintf("Operation:    %s", s.Operation),
		fmt.Sprintf("Processed:    %s of %s", formatCount(s.TotalProcessed), formatCount(s.TotalInput)),
		fmt.Sprintf("Succeeded:    %s", formatCount(s.Succeeded)),
		fmt.Sprintf("Failed:       %s", formatCount(s.Failed)),
		fmt.Sprintf("Success rate: %.0f%%", s.SuccessRate),
		fmt.Sprintf("Duration:     %s", (time.Duration(s.ProcessingTimeMs) * time.Millisecond).String()),
	}
}

func failureLines(s bulk.Summary) []string {
	if len(s.Failures) == 0 {
		return nil
	}
	lines := make([]string, 0, min(len(s.Failures), maxListedFailures)+1)
	for i, f := range s.Failures {
		if i == maxListedFailures {
			lines = append(lines, fmt.Sprintf("... and %s more", formatCount(len(s.Failures)-maxListedFailures)))
			break
		}
		lines = append(lines, fmt.Sprintf("#%d (attempts %d): %s", f.Index, f.Attempts, f.Message))
	}
	return lines
}

func renderPlainSummary(s bulk.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Status:       %s\n", Status(s))
	for _, line := range summaryLines(s) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if failures := failureLines(s); len(failures) > 0 {
		sb.WriteString("Failures:\n")
		for _, line := range failures {
			sb.WriteString("  ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func renderStyledSummary(s bulk.Summary) string {
	var status string
	switch {
	case s.Aborted:
		status = warningStyle.Render(fmt.Sprintf("%s %s", IconAborted, Status(s)))
	case s.Success:
		status = okStyle.Render(fmt.Sprintf("%s %s", IconOK, Status(s)))
	default:
		status = errorStyle.Render(fmt.Sprintf("%s %s", IconFailed, Status(s)))
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Bulk run summary"))
	sb.WriteString("\n")
	sb.WriteString(status)
	sb.WriteString("\n\n")
	sb.WriteString(strings.Join(summaryLines(s), "\n"))

	if failures := failureLines(s); len(failures) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(errorStyle.Render("Failures"))
		for _, line := range failures {
			sb.WriteString("\n")
			sb.WriteString(mutedStyle.Render("  " + line))
		}
	}

	return boxStyle.Render(sb.String()) + "\n"
}
