// Package main provides the entry point for the sentinel CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0-dev"
	globalDir  string
	globalJSON bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sentinel",
		Short:         "Procurement risk scoring over a shadow graph of companies, directors and officials",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalDir, "dir", "C", "", "Project directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&globalJSON, "json", false, "Print machine-readable JSON")

	rootCmd.AddCommand(
		newInitCmd(),
		newImportCmd(),
		newHistoryCmd(),
		newScoreCmd(),
		newTendersCmd(),
		newTenderCmd(),
		newCompanyCmd(),
		newGraphCmd(),
		newCartelsCmd(),
		newStatsCmd(),
		newServeCmd(),
	)

	return rootCmd
}
