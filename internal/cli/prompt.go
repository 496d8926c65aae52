package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptResult contains the result of a user prompt interaction.
type PromptResult struct {
	// Accepted is true if the user typed "y" or "yes".
	Accepted bool
	// Cancelled is true if reading the answer failed.
	Cancelled bool
}

// ConfirmDelete asks the user to confirm deleting count records through
// sinkName. Only "y" and "yes" accept; an empty answer or EOF declines.
func ConfirmDelete(writer io.Writer, reader io.Reader, count int, sinkName string) PromptResult {
	fmt.Fprintf(writer, "? Delete %d records through the %s sink? [y/N] ", count, sinkName)

	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if scanner.Err() != nil {
			return PromptResult{Cancelled: true}
		}
		return PromptResult{}
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return PromptResult{Accepted: true}
	default:
		return PromptResult{}
	}
}
