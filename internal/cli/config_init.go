package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/bulkrun/internal/config"
)

// newConfigInitCmd writes a default config file. It skips config loading so
// it can replace a file that no longer parses.
func newConfigInitCmd(a *app) *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a configuration file with default values at ~/.bulkrun/config.yaml,
or at --path. An existing file is kept unless --force is given.`,
		Example: `  # Create the default configuration
  bulkrun config init

  # Overwrite an existing configuration
  bulkrun config init --force

  # Write a project configuration picked up from this directory down
  bulkrun config init --path .bulkrun.yaml`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader := a.loader()
			if path == "" {
				path = loader.DefaultPath()
			}

			if err := loader.Save(config.New(a.env.HomeDir), path, force); err != nil {
				return err
			}

			cmd.Printf("Configuration initialized at %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().StringVar(&path, "path", "", "file to write (default ~/.bulkrun/config.yaml)")

	return cmd
}
