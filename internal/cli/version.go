package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/rshade/bulkrun/pkg/version"
)

func newVersionCmd(ver string) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("bulkrun %s\n", ver)
			cmd.Printf("commit:     %s\n", version.GetGitCommit())
			cmd.Printf("built:      %s\n", version.GetBuildDate())
			cmd.Printf("go version: %s\n", runtime.Version())
		},
	}
}
