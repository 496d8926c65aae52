package cli

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/bulkrun/internal/cli/pagination"
	"github.com/rshade/bulkrun/internal/report"
	"github.com/rshade/bulkrun/internal/tui"
)

func newReportsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect and prune saved run reports",
	}

	cmd.AddCommand(
		newReportsListCmd(a),
		newReportsShowCmd(a),
		newReportsPruneCmd(a),
	)
	return cmd
}

func (a *app) reportStore() (*report.FileStore, error) {
	return report.NewFileStore(a.env.Fs, a.cfg.Reports.Directory, a.cfg.Reports.Retention)
}

// reportSorter orders report entries for reports list.
//
//nolint:gochecknoglobals // Stateless lookup table.
var reportSorter = pagination.NewSorter(map[string]func(a, b *report.Entry) int{
	"created": func(a, b *report.Entry) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"operation": func(a, b *report.Entry) int {
		return cmp.Compare(a.Summary.Operation, b.Summary.Operation)
	},
	"processed": func(a, b *report.Entry) int {
		return cmp.Compare(a.Summary.TotalProcessed, b.Summary.TotalProcessed)
	},
	"failed": func(a, b *report.Entry) int { return cmp.Compare(a.Summary.Failed, b.Summary.Failed) },
	"duration": func(a, b *report.Entry) int {
		return cmp.Compare(a.Summary.ProcessingTimeMs, b.Summary.ProcessingTimeMs)
	},
})

func newReportsListCmd(a *app) *cobra.Command {
	var (
		output string
		page   pagination.Params
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved run reports, newest first",
		Example: `  # Ten most recent runs
  bulkrun reports list --limit 10

  # Runs with the most failures first
  bulkrun reports list --sort failed:desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := page.Validate(); err != nil {
				return err
			}

			store, err := a.reportStore()
			if err != nil {
				return err
			}
			entries, err := store.List()
			if err != nil {
				return err
			}
			if entries, err = reportSorter.Sort(entries, page.Sort); err != nil {
				return err
			}
			entries = pagination.Page(entries, page)

			switch output {
			case outputJSON:
				return writeJSON(cmd.OutOrStdout(), entries)
			case outputText:
				return renderReportTable(cmd.OutOrStdout(), entries)
			default:
				return fmt.Errorf("unsupported output format %q, expected %s or %s", output, outputText, outputJSON)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, json")
	page.AddFlags(cmd, "created:desc")
	return cmd
}

func renderReportTable(w io.Writer, entries []*report.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No reports found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tOPERATION\tSTATUS\tPROCESSED\tFAILED\tCREATED")
	for _, e := range entries {
		s := e.Summary
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			e.RunID,
			s.Operation,
			tui.Status(s),
			s.TotalProcessed,
			s.TotalInput,
			s.Failed,
			e.CreatedAt.Local().Format(time.DateTime),
		)
	}
	return tw.Flush()
}

func newReportsShowCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show the summary of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.reportStore()
			if err != nil {
				return err
			}
			entry, err := store.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch output {
			case outputJSON:
				return writeJSON(out, entry)
			case outputText:
				fmt.Fprintf(out, "Input:    %s\n", entry.Input)
				fmt.Fprintf(out, "Sink:     %s\n", entry.Sink)
				fmt.Fprintf(out, "Saved:    %s\n", entry.CreatedAt.Local().Format(time.DateTime))
				if entry.TraceID != "" {
					fmt.Fprintf(out, "Trace ID: %s\n", entry.TraceID)
				}
				fmt.Fprintln(out)
				return tui.RenderSummary(out, entry.Summary, a.outputMode(cmd) != tui.OutputModePlain)
			default:
				return fmt.Errorf("unsupported output format %q, expected %s or %s", output, outputText, outputJSON)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, json")
	return cmd
}

func newReportsPruneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired run reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.reportStore()
			if err != nil {
				return err
			}
			removed, err := store.CleanupExpired()
			if err != nil {
				return err
			}
			a.logger.Debug().Int("removed", removed).Str("directory", store.Directory()).Msg("reports pruned")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired reports\n", removed)
			return err
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
