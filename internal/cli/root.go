package cli

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rshade/bulkrun/internal/config"
	"github.com/rshade/bulkrun/internal/logging"
	"github.com/rshade/bulkrun/internal/tui"
	"github.com/rshade/bulkrun/pkg/bulk"
)

// annotationSkipConfig marks commands that must run without a valid config.
const annotationSkipConfig = "bulkrun/skip-config"

// Environment is everything the CLI reads from the outside world. Tests
// swap in an in-memory filesystem and a fake terminal.
type Environment struct {
	Fs        afero.Fs
	HomeDir   string
	WorkDir   string
	LookupEnv func(string) (string, bool)
	Stdin     io.Reader
	Terminal  tui.Terminal
}

// DefaultEnvironment describes the running process.
func DefaultEnvironment() Environment {
	loader := config.NewLoader()
	return Environment{
		Fs:        afero.NewOsFs(),
		HomeDir:   loader.HomeDir,
		WorkDir:   loader.WorkDir,
		LookupEnv: os.LookupEnv,
		Stdin:     os.Stdin,
		Terminal:  tui.CurrentTerminal(),
	}
}

// app is the state shared by every command of one root command.
type app struct {
	env Environment
	cfg *config.Config

	logger    zerolog.Logger
	logResult *logging.LogPathResult
}

func (a *app) loader() *config.Loader {
	return &config.Loader{
		Fs:        a.env.Fs,
		HomeDir:   a.env.HomeDir,
		WorkDir:   a.env.WorkDir,
		LookupEnv: a.env.LookupEnv,
	}
}

// NewRootCmd creates the root Cobra command for the bulkrun CLI.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithEnv(ver, DefaultEnvironment())
}

// NewRootCmdWithEnv creates the root command against an explicit environment.
func NewRootCmdWithEnv(ver string, env Environment) *cobra.Command {
	a := &app{env: env, logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "bulkrun",
		Short:         "Run create, update and delete operations over many records",
		Long:          "bulkrun: batch records through an HTTP endpoint, a command or a simulator with retries and progress",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			a.setupLogging(cmd)
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.cleanupLogging()
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file (default ~/.bulkrun/config.yaml)")
	cmd.PersistentFlags().Bool("plain", false, "plain text output without colors or live progress")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	cmd.AddCommand(
		newRunCmd(a, bulk.OperationCreate),
		newRunCmd(a, bulk.OperationUpdate),
		newRunCmd(a, bulk.OperationDelete),
		newReportsCmd(a),
		newConfigCmd(a),
		newVersionCmd(ver),
	)

	return cmd
}

// loadConfig reads the effective configuration. Commands annotated with
// annotationSkipConfig fall back to defaults so they work with a broken file.
func (a *app) loadConfig(cmd *cobra.Command) error {
	if _, skip := cmd.Annotations[annotationSkipConfig]; skip {
		a.cfg = config.New(a.env.HomeDir)
		return nil
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := a.loader().Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

const rootCmdExample = `  # Create every record in users.json through the configured sink
  bulkrun create --input users.json

  # Update records from stdin against an HTTP API, 8 at a time, retrying twice
  cat users.ndjson | bulkrun update --input - --sink http \
    --url https://api.example.com/users/{id} --max-concurrency 8 --max-retries 2

  # Delete records with a script, stopping at the first failure
  bulkrun delete --input stale.yaml --sink exec --command ./delete-user.sh --continue-on-error=false

  # Dry run with a simulated 10% failure rate
  bulkrun create --input users.json --sink simulate --failure-rate 0.1

  # Inspect past runs
  bulkrun reports list
  bulkrun reports show 01J9Z6W3Q8X1C4V7B2N5M0K8HT

  # Write a default configuration file
  bulkrun config init`
