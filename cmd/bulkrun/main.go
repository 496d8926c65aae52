// Command bulkrun runs create, update and delete operations over a file of
// records with batching, bounded concurrency and retries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/bulkrun/internal/cli"
	"github.com/rshade/bulkrun/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and returns the process exit code. An
// interrupt cancels the run; records already in flight are still reported.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.GetVersion())
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	}
	return cli.ExitCode(err)
}
