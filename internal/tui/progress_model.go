package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/bulkrun/internal/logging"
	"github.com/rshade/bulkrun/pkg/bulk"
)

const (
	defaultBarWidth = 40
	maxBarWidth     = 80
	barPadding      = 4
)

// ProgressMsg carries a snapshot from the processor's progress callback.
type ProgressMsg struct {
	Snapshot bulk.ProgressSnapshot
}

// DoneMsg is sent once the run has returned.
type DoneMsg struct {
	Summary bulk.Summary
}

// ProgressModel is the live view shown while a run is in flight.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type ProgressModel struct {
	ctx       context.Context
	operation bulk.OperationType
	total     int
	cancel    context.CancelFunc

	bar      progress.Model
	snapshot bulk.ProgressSnapshot
	summary  *bulk.Summary

	canceling bool
}

// NewProgressModel returns a model for a run of total items. cancel is called
// when the user presses q or ctrl+c.
func NewProgressModel(
	ctx context.Context,
	op bulk.OperationType,
	total int,
	cancel context.CancelFunc,
) ProgressModel {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = defaultBarWidth

	return ProgressModel{
		ctx:       ctx,
		operation: op,
		total:     total,
		cancel:    cancel,
		bar:       bar,
		snapshot:  bulk.ProgressSnapshot{Operation: op, Total: total},
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-barPadding, 10), maxBarWidth)
		return m, nil

	case ProgressMsg:
		// Snapshots can arrive out of order through the program's channel.
		if msg.Snapshot.Processed >= m.snapshot.Processed {
			m.snapshot = msg.Snapshot
		}
		return m, nil

	case DoneMsg:
		summary := msg.Summary
		m.summary = &summary
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m ProgressModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyCtrlC && msg.String() != "q" {
		return m, nil
	}
	if m.canceling {
		return m, nil
	}

	m.canceling = true
	logger := logging.FromContext(m.ctx)
	logger.Info().
		Str("component", "tui").
		Str("operation", m.operation.String()).
		Int("processed", m.snapshot.Processed).
		Msg("run canceled from keyboard")
	if m.cancel != nil {
		m.cancel()
	}
	// The run settles in-flight items and then sends DoneMsg.
	return m, nil
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	var sb strings.Builder
	s := m.snapshot

	sb.WriteString(titleStyle.Render(fmt.Sprintf("bulk %s", m.operation)))
	sb.WriteString("\n\n")
	sb.WriteString(m.bar.ViewAs(s.Percentage / 100))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "%s of %s items", formatCount(s.Processed), formatCount(m.total))
	if s.TotalBatches > 0 {
		fmt.Fprintf(&sb, "  batch %d/%d", s.CurrentBatch, s.TotalBatches)
	}
	sb.WriteString("\n")
	sb.WriteString(okStyle.Render(fmt.Sprintf("%s %s", IconOK, formatCount(s.Succeeded))))
	sb.WriteString("  ")
	sb.WriteString(errorStyle.Render(fmt.Sprintf("%s %s", IconFailed, formatCount(s.Failed))))
	sb.WriteString("  ")
	sb.WriteString(mutedStyle.Render(rateAndETA(s)))
	sb.WriteString("\n\n")

	switch {
	case m.summary != nil:
		sb.WriteString(mutedStyle.Render("done"))
	case m.canceling:
		sb.WriteString(warningStyle.Render("canceling, waiting for in-flight items..."))
	default:
		sb.WriteString(mutedStyle.Render("press q to cancel"))
	}
	sb.WriteString("\n")

	return sb.String()
}

// Summary returns the final summary once DoneMsg has been received.
func (m ProgressModel) Summary() (bulk.Summary, bool) {
	if m.summary == nil {
		return bulk.Summary{}, false
	}
	return *m.summary, true
}

// Canceled reports whether the user asked to cancel.
func (m ProgressModel) Canceled() bool {
	return m.canceling
}

func rateAndETA(s bulk.ProgressSnapshot) string {
	rate := s.ItemsPerSecond()
	if rate == 0 {
		return "-- items/s"
	}
	eta := s.EstimatedTimeRemaining().Round(time.Second)
	if eta <= 0 {
		return fmt.Sprintf("%.1f items/s", rate)
	}
	return fmt.Sprintf("%.1f items/s  eta %s", rate, eta)
}

// FormatProgressLine renders a one-line progress report for non-interactive output.
func FormatProgressLine(s bulk.ProgressSnapshot) string {
	return fmt.Sprintf("[%s] %s/%s (%.0f%%) ok=%s failed=%s batch=%d/%d",
		s.Operation,
		formatCount(s.Processed), formatCount(s.Total), s.Percentage,
		formatCount(s.Succeeded), formatCount(s.Failed),
		s.CurrentBatch, s.TotalBatches)
}
