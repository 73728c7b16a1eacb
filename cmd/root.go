package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agencydir",
	Short: "Agency directory server and migration tooling",
	Long: `agencydir serves the public agency listing and its admin area,
and carries the tooling that moved the content out of the old hosted CMS:
dump, gensql, apply, upload for the one-time migration, backfill for the
slug column, and sync for mirroring production into a local database.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
