// Package tui renders bulk run progress and summaries for the terminal.
//
// Output adapts to the terminal: plain text when piped or when colors are
// disabled, lipgloss styled text on non-interactive terminals, and a live
// Bubble Tea progress view when stdin and stdout are both terminals.
package tui
