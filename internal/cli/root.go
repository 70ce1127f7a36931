// Package cli provides the command-line interface for ragdex.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/ragdex/internal/client"
	"github.com/raphaelgruber/ragdex/internal/config"
	"github.com/raphaelgruber/ragdex/internal/metrics"
	"github.com/raphaelgruber/ragdex/internal/state"
	"github.com/raphaelgruber/ragdex/internal/tracker"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Shared components, initialized in PersistentPreRunE.
	cfg        config.Config
	logCleanup func() error
	stateDB    *state.DB
	collector  *metrics.Collector
	svc        *client.Client
	trk        *tracker.Tracker
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ragdex",
	Short: "Upload, index and query documents in a file search store",
	Long: `Ragdex is a client for a file search (RAG) service: it uploads documents,
tracks the asynchronous indexing operations the service starts for them,
and answers questions grounded in the indexed corpus.

Indexing runs server-side; ragdex polls operation status, merges it with
the store's document listing, and shows where ingestion stands.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Nothing to set up for version and help
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		logCleanup = cleanup

		var err error
		stateDB, err = state.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open state database: %w", err)
		}

		collector = metrics.NewCollector()
		svc = client.New(cfg.ServerURL, client.Options{
			Timeout:           cfg.RequestTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.RequestBurst,
			Metrics:           collector,
		})
		trk = tracker.New(svc, stateDB, tracker.Options{})

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stateDB != nil {
			if err := stateDB.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close state database: %v\n", err)
			}
		}
		if logCleanup != nil {
			logCleanup()
		}
	},
}

// restoreStore re-selects the persisted store, resuming operations tracked
// by earlier invocations. A failing listing fetch is a notice, not an
// error: previous state stays usable.
func restoreStore(ctx context.Context) (string, error) {
	storeID, err := trk.Restore(ctx)
	if storeID == "" {
		if err != nil {
			return "", fmt.Errorf("restore store selection: %w", err)
		}
		return "", fmt.Errorf("no store selected; run 'ragdex stores select <id>' first")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not refresh document listing: %v\n", err)
	}
	return storeID, nil
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(storesCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(watchCmd)
}
