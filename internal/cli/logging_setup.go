package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/bulkrun/internal/logging"
)

// setupLogging configures logging from config and CLI flags and stores the
// logger and a trace ID in the command's context.
func (a *app) setupLogging(cmd *cobra.Command) {
	loggingCfg := a.cfg.Logging.ToLoggingConfig()

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = logging.FormatConsole
		loggingCfg.Output = logging.OutputStderr
		loggingCfg.File = ""
	}

	if loggingCfg.Output == logging.OutputFile {
		result := logging.NewLoggerWithPath(loggingCfg)
		a.logResult = &result
		a.logger = logging.ComponentLogger(result.Logger, "cli")
		if result.UsingFile {
			logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
		} else if result.FallbackUsed {
			logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
		}
	} else {
		a.logger = logging.ComponentLogger(logging.NewWriterLogger(cmd.ErrOrStderr(), loggingCfg), "cli")
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = a.logger.WithContext(ctx)
	cmd.SetContext(ctx)

	a.logger.Debug().
		Ctx(ctx).
		Str("command", cmd.CommandPath()).
		Str("trace_id", traceID).
		Str("config", a.cfg.Path()).
		Msg("command started")
}

// cleanupLogging closes the log file, if one was opened.
func (a *app) cleanupLogging() error {
	if a.logResult == nil {
		return nil
	}
	err := a.logResult.Close()
	a.logResult = nil
	return err
}
