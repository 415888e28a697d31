// Command flowctl solves DIMACS max-flow instances locally or through
// solver-svc and mints bearer tokens for the service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"maxflow/pkg/logger"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "flowctl",
		Short: "Maximum flow and minimum cut tool",
		Long: `flowctl computes maximum flows and minimum cuts with the preflow
push-relabel engine.

Available subcommands:
  solve  - solve a DIMACS max-flow file locally
  remote - send a DIMACS file to solver-svc
  token  - mint a bearer token for solver-svc
  cache  - inspect or flush the solver-svc result cache`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// stdout занят результатом, логи идут в stderr
			logger.InitWithConfig(logger.Config{
				Level:  logLevel,
				Format: "text",
				Output: "stderr",
			})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newSolveCmd(), newRemoteCmd(), newTokenCmd(), newCacheCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "flowctl:", err)
		os.Exit(1)
	}
}
