package cli

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the bulkrun configuration file",
	}

	cmd.AddCommand(
		newConfigInitCmd(a),
		newConfigValidateCmd(a),
		newConfigShowCmd(a),
	)
	return cmd
}
