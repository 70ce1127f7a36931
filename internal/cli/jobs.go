package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/ragdex/internal/tracker"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [operation-id]",
	Short: "Show tracked indexing operations",
	Long: `Show the indexing operations tracked for the active store.

Without arguments all tracked operations are listed. With an operation id
the locally tracked record is shown together with a fresh status probe
against the server.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if _, err := restoreStore(ctx); err != nil {
		return err
	}

	if len(args) == 1 {
		return showJob(ctx, args[0])
	}

	ops := trk.Operations()
	if len(ops) == 0 {
		fmt.Println("No tracked operations.")
		return nil
	}

	for _, op := range ops {
		fmt.Printf("%s %-40s %s\n", statusGlyph(op.Status), op.Label(), op.ID)
		if op.Error != "" {
			fmt.Printf("    ↳ %s\n", op.Error)
		}
	}
	fmt.Printf("\n%d tracked, %d still processing\n", len(ops), trk.Processing())
	return nil
}

func showJob(ctx context.Context, id string) error {
	op, ok := trk.Operation(id)
	if !ok {
		return fmt.Errorf("no tracked operation with id %q", id)
	}

	fmt.Printf("Operation:  %s\n", op.ID)
	fmt.Printf("Name:       %s\n", op.Label())
	fmt.Printf("Status:     %s\n", op.Status)
	if op.DocumentPath != "" {
		fmt.Printf("Document:   %s\n", op.DocumentPath)
	}
	if op.Error != "" {
		fmt.Printf("Error:      %s\n", op.Error)
	}

	status, err := svc.GetOperationStatus(ctx, op.ID)
	if err != nil {
		fmt.Printf("\nServer probe failed: %v\n", err)
		return nil
	}
	fmt.Printf("\nServer says done=%t", status.Done)
	if status.Error != nil {
		fmt.Printf(" error=%s", *status.Error)
	}
	if status.DocumentName != "" {
		fmt.Printf(" document=%s", status.DocumentName)
	}
	fmt.Println()
	return nil
}

func statusGlyph(s tracker.Status) string {
	switch s {
	case tracker.StatusSuccess:
		return "✓"
	case tracker.StatusError:
		return "✗"
	default:
		return "…"
	}
}
