package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/ragdex/internal/tracker"
)

var uploadNoWait bool

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload local files for indexing",
	Long: `Upload one or more local files to the active store.

Indexing happens asynchronously on the server; ragdex tracks the returned
operations and polls their status until they resolve. Use --no-wait to
return immediately and check later with 'ragdex jobs'.

Examples:
  ragdex upload report.pdf
  ragdex upload docs/*.md --no-wait`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadNoWait, "no-wait", false, "do not wait for indexing to finish")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	storeID, err := restoreStore(ctx)
	if err != nil {
		return err
	}

	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
	}

	descs, err := svc.Upload(ctx, storeID, args)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	friendly := make([]string, len(args))
	for i, path := range args {
		friendly[i] = filepath.Base(path)
	}
	trk.TrackAll(descs, friendly)

	return reportIngestion(ctx, uploadNoWait)
}

// reportIngestion waits for tracked operations to resolve (interactively
// when attached to a terminal) and prints the outcome.
func reportIngestion(ctx context.Context, noWait bool) error {
	if trk.Processing() == 0 {
		// Every descriptor was already terminal; just reconcile once.
		if err := trk.RefreshListing(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not refresh document listing: %v\n", err)
		}
		printOperations(trk.Operations())
		return firstOperationError()
	}

	if noWait {
		fmt.Printf("Indexing %d document(s) in the background.\n", trk.Processing())
		fmt.Println("Use 'ragdex jobs' to check progress.")
		return nil
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		if err := runProgress(trk); err != nil {
			return err
		}
	} else {
		fmt.Printf("Waiting for %d indexing operation(s)...\n", trk.Processing())
		if err := trk.Wait(ctx); err != nil {
			return err
		}
	}

	printOperations(trk.Operations())
	if verbose {
		printRequestStats()
	}
	return firstOperationError()
}

// printOperations prints the registry entries still present after a wait.
// Completed entries reconciled away by the listing are counted as done.
func printOperations(ops []tracker.Operation) {
	failed := 0
	for _, op := range ops {
		switch op.Status {
		case tracker.StatusError:
			failed++
			fmt.Printf("✗ %s: %s\n", op.Label(), op.Error)
		case tracker.StatusSuccess:
			fmt.Printf("✓ %s indexed (awaiting listing)\n", op.Label())
		case tracker.StatusProcessing:
			fmt.Printf("… %s still indexing\n", op.Label())
		}
	}

	step := trk.Step()
	fmt.Printf("Step %d/3: %s\n", step, step)
	if failed > 0 {
		fmt.Printf("%d document(s) failed to index\n", failed)
	}
}

// firstOperationError returns a non-nil error if any tracked operation
// failed, so the process exit code reflects the outcome.
func firstOperationError() error {
	for _, op := range trk.Operations() {
		if op.Status == tracker.StatusError {
			return fmt.Errorf("indexing failed for %s: %s", op.Label(), op.Error)
		}
	}
	return nil
}

// printRequestStats dumps the request metrics collected this invocation.
func printRequestStats() {
	snap := collector.Snapshot()
	fmt.Println("\nRequest stats:")
	if snap.Upload != nil {
		fmt.Printf("  upload:  %d requests, avg %.0fms\n", snap.Upload.Count, snap.Upload.AvgTimeMs)
	}
	if snap.Poll != nil {
		fmt.Printf("  poll:    %d requests, avg %.0fms, %d errors\n", snap.Poll.Count, snap.Poll.AvgTimeMs, snap.Poll.Errors)
	}
	if snap.Listing != nil {
		fmt.Printf("  listing: %d requests, avg %.0fms, %d errors\n", snap.Listing.Count, snap.Listing.AvgTimeMs, snap.Listing.Errors)
	}
}
