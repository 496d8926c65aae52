package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/bulkrun/internal/config"
	"github.com/rshade/bulkrun/internal/ingest"
	"github.com/rshade/bulkrun/internal/logging"
	"github.com/rshade/bulkrun/internal/report"
	"github.com/rshade/bulkrun/internal/sink"
	"github.com/rshade/bulkrun/internal/tui"
	"github.com/rshade/bulkrun/pkg/bulk"
)

// Output formats for run and report commands.
const (
	outputText = "text"
	outputJSON = "json"
)

// runResult is the concrete result type of a CLI run.
type runResult = bulk.Result[ingest.Record, sink.Response]

// runOptions holds the flags that are not config overrides.
type runOptions struct {
	input    string
	format   string
	output   string
	filters  []string
	yes      bool
	noReport bool
}

// newRunCmd creates the create, update or delete command.
func newRunCmd(a *app, op bulk.OperationType) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   op.String(),
		Short: fmt.Sprintf("Run a bulk %s over the records in a file", op),
		Long: fmt.Sprintf(`Reads records from a JSON, NDJSON or YAML file (or stdin with --input -) and
sends each one to the configured sink as a %s operation.

Flags override the config file and BULKRUN_* environment variables. The
process exits with code 2 when any record fails or the run is aborted.`, op),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyRunFlags(cmd, a.cfg); err != nil {
				return err
			}
			return a.runBulk(cmd, op, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "records file, or - for stdin (required)")
	f.StringVar(&opts.format, "format", "auto", "input format: auto, json, ndjson, yaml")
	f.StringVarP(&opts.output, "output", "o", outputText, "summary format: text, json")
	f.StringArrayVar(&opts.filters, "filter", nil, "only process records matching key=value or key!=value (repeatable)")
	f.BoolVar(&opts.noReport, "no-report", false, "do not save a run report")
	if op == bulk.OperationDelete {
		f.BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation")
	}

	f.Int("batch-size", 0, "records per batch (0 = one batch)")
	f.Duration("batch-delay", 0, "pause between batches")
	f.Bool("parallel", false, "process records within a batch concurrently")
	f.Int("max-concurrency", 0, "maximum concurrent records, implies --parallel (0 = unbounded)")
	f.Bool("continue-on-error", true, "keep going after a record fails")
	f.Bool("retry", false, "retry failed records")
	f.Int("max-retries", 0, "extra attempts per failed record, implies --retry")
	f.Duration("retry-backoff", 0, "wait before the first retry, doubling per attempt")

	f.String("sink", "", "sink type: http, exec, simulate")
	f.String("url", "", "http sink URL, {id} is replaced with the record id")
	f.StringArray("header", nil, "http sink header as Key=Value (repeatable)")
	f.Duration("timeout", 0, "per-record timeout for the http and exec sinks")
	f.String("command", "", "exec sink command")
	f.StringArray("arg", nil, "exec sink argument (repeatable)")
	f.Duration("delay", 0, "simulate sink delay per record")
	f.Float64("failure-rate", 0, "simulate sink failure rate between 0 and 1")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// applyRunFlags copies explicitly set flags onto cfg and revalidates it.
//
//nolint:gocognit,cyclop // Flat list of independent overrides.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	b := &cfg.Bulk

	if f.Changed("batch-size") {
		b.BatchSize, _ = f.GetInt("batch-size")
	}
	if f.Changed("batch-delay") {
		b.BatchDelay, _ = f.GetDuration("batch-delay")
	}
	if f.Changed("max-concurrency") {
		b.MaxConcurrency, _ = f.GetInt("max-concurrency")
		b.Parallel = true
	}
	if f.Changed("parallel") {
		b.Parallel, _ = f.GetBool("parallel")
	}
	if f.Changed("continue-on-error") {
		b.ContinueOnError, _ = f.GetBool("continue-on-error")
	}
	if f.Changed("max-retries") {
		b.MaxRetries, _ = f.GetInt("max-retries")
		b.RetryFailed = b.MaxRetries > 0
	}
	if f.Changed("retry") {
		b.RetryFailed, _ = f.GetBool("retry")
		if b.RetryFailed && b.MaxRetries == 0 && !f.Changed("max-retries") {
			b.MaxRetries = 1
		}
	}
	if f.Changed("retry-backoff") {
		b.RetryBackoff, _ = f.GetDuration("retry-backoff")
	}

	s := &cfg.Sink
	if f.Changed("sink") {
		s.Type, _ = f.GetString("sink")
	}
	if f.Changed("url") {
		s.HTTP.URL, _ = f.GetString("url")
	}
	if f.Changed("header") {
		headers, _ := f.GetStringArray("header")
		if s.HTTP.Headers == nil {
			s.HTTP.Headers = map[string]string{}
		}
		for _, h := range headers {
			k, v, ok := strings.Cut(h, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return fmt.Errorf("invalid --header %q, expected Key=Value", h)
			}
			s.HTTP.Headers[strings.TrimSpace(k)] = v
		}
	}
	if f.Changed("timeout") {
		timeout, _ := f.GetDuration("timeout")
		s.HTTP.Timeout = timeout
		s.Exec.Timeout = timeout
	}
	if f.Changed("command") {
		s.Exec.Command, _ = f.GetString("command")
	}
	if f.Changed("arg") {
		s.Exec.Args, _ = f.GetStringArray("arg")
	}
	if f.Changed("delay") {
		s.Simulate.Delay, _ = f.GetDuration("delay")
	}
	if f.Changed("failure-rate") {
		s.Simulate.FailureRate, _ = f.GetFloat64("failure-rate")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// runBulk loads the input, runs it through the sink and reports the outcome.
func (a *app) runBulk(cmd *cobra.Command, op bulk.OperationType, opts runOptions) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	if opts.output != outputText && opts.output != outputJSON {
		return fmt.Errorf("unsupported output format %q, expected %s or %s", opts.output, outputText, outputJSON)
	}

	format, err := ingest.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	loader := &ingest.Loader{Fs: a.env.Fs, Stdin: a.env.Stdin}
	records, err := loader.Load(ctx, opts.input, format)
	if err != nil {
		return err
	}
	if records, err = ApplyFilters(ctx, records, opts.filters); err != nil {
		return err
	}
	if err = ingest.Validate(records, op); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	s, err := sink.New(a.cfg.Sink, op)
	if err != nil {
		return err
	}

	if a.needsConfirmation(op, opts, len(records)) {
		answer := ConfirmDelete(cmd.ErrOrStderr(), a.env.Stdin, len(records), s.Name())
		if !answer.Accepted {
			return errDeleteDeclined
		}
	}

	mode := a.outputMode(cmd)
	if opts.output == outputJSON && mode == tui.OutputModeInteractive {
		mode = tui.OutputModeStyled
	}

	execute := func(ctx context.Context, onProgress bulk.ProgressFunc) (*runResult, error) {
		bulkOpts := append(a.cfg.Bulk.Options(),
			bulk.WithLogger(log),
			bulk.WithProgress(onProgress),
		)
		return bulk.Process(ctx, op, records, bulk.FromExecutor[ingest.Record, sink.Response](s), bulkOpts...)
	}

	var result *runResult
	switch {
	case mode == tui.OutputModeInteractive:
		result, err = runInteractive(ctx, cmd, op, len(records), execute)
	case opts.output == outputJSON:
		result, err = execute(ctx, nil)
	default:
		result, err = execute(ctx, newProgressPrinter(cmd.ErrOrStderr()).print)
	}
	if err != nil {
		return err
	}

	summary := result.Summary()
	if !opts.noReport {
		a.saveReport(ctx, summary, report.Metadata{
			TraceID: logging.TraceIDFromContext(ctx),
			Input:   opts.input,
			Sink:    s.Name(),
		})
	}

	if err = renderRunSummary(cmd.OutOrStdout(), summary, opts.output, mode != tui.OutputModePlain); err != nil {
		return err
	}

	return runOutcome(summary)
}

// needsConfirmation reports whether a delete must be confirmed first. Only a
// terminal user whose stdin is not carrying the records is asked.
func (a *app) needsConfirmation(op bulk.OperationType, opts runOptions, count int) bool {
	return op == bulk.OperationDelete &&
		!opts.yes &&
		count > 0 &&
		opts.input != ingest.StdinPath &&
		a.env.Terminal.StdinTTY
}

func (a *app) outputMode(cmd *cobra.Command) tui.OutputMode {
	plain, _ := cmd.Flags().GetBool("plain")
	noColor, _ := cmd.Flags().GetBool("no-color")
	return tui.ResolveOutputMode(a.env.Terminal, plain, noColor)
}

// saveReport persists the summary. Failures are logged, never returned.
func (a *app) saveReport(ctx context.Context, summary bulk.Summary, meta report.Metadata) {
	log := logging.FromContext(ctx)
	if !a.cfg.Reports.Enabled {
		return
	}

	store, err := report.NewFileStore(a.env.Fs, a.cfg.Reports.Directory, a.cfg.Reports.Retention)
	if err != nil {
		log.Warn().Err(err).Msg("could not open report store")
		return
	}
	if _, err = store.Save(summary, meta); err != nil {
		log.Warn().Err(err).Str("run_id", summary.RunID).Msg("could not save run report")
		return
	}
	log.Debug().Str("run_id", summary.RunID).Str("directory", store.Directory()).Msg("run report saved")
}

func renderRunSummary(w io.Writer, summary bulk.Summary, output string, styled bool) error {
	if output == outputJSON {
		return writeJSON(w, summary)
	}
	return tui.RenderSummary(w, summary, styled)
}

// runOutcome turns a finished run into the command's error.
func runOutcome(summary bulk.Summary) error {
	switch {
	case summary.Canceled:
		return &ExitError{Code: ExitCodeFailures, Err: fmt.Errorf("run canceled after %d of %d records",
			summary.TotalProcessed, summary.TotalInput)}
	case summary.Aborted:
		return &ExitError{Code: ExitCodeFailures, Err: fmt.Errorf("run aborted after %d of %d records",
			summary.TotalProcessed, summary.TotalInput)}
	case summary.Failed > 0:
		return &ExitError{Code: ExitCodeFailures, Err: fmt.Errorf("%d of %d records failed",
			summary.Failed, summary.TotalProcessed)}
	default:
		return nil
	}
}

var (
	// errNoResult is returned if the interactive view exits without a result.
	errNoResult = errors.New("run ended without a result")

	errDeleteDeclined = errors.New("delete not confirmed, nothing was changed")
)
