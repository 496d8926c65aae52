package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rshade/bulkrun/internal/logging"
)

// ToLoggingConfig converts LoggingConfig to logging.Config.
//
// The conversion applies these rules:
//   - Level, Format are copied directly
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}

	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}

func (lc LoggingConfig) validate() []error {
	var errs []error

	if lc.Level != "" {
		if _, err := zerolog.ParseLevel(lc.Level); err != nil {
			errs = append(errs, fmt.Errorf("logging.level: %w", err))
		}
	}
	switch lc.Format {
	case "", logging.FormatJSON, logging.FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("logging.format must be %q or %q, got %q",
			logging.FormatJSON, logging.FormatConsole, lc.Format))
	}

	return errs
}
