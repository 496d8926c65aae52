package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newConfigValidateCmd loads the configuration the way every other command
// does and reports whether it is usable.
func newConfigValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Long: `Loads the config file, any project .bulkrun.yaml and BULKRUN_* environment
variables, and checks the result for syntax and semantic errors.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := a.loader().Load(path)
			if err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}

			source := cfg.Path()
			if source == "" {
				source = "defaults"
			}
			cmd.Printf("Configuration is valid (%s)\n", source)
			cmd.Printf("Sink: %s\n", cfg.Sink.Type)
			return nil
		},
	}
}

// newConfigShowCmd prints the effective configuration as YAML.
func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
