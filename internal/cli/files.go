package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/ragdex/internal/tracker"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List documents in the active store",
	Long: `List the documents of the active store, merged with locally tracked
indexing operations.

Documents the listing does not show yet (still indexing, or failed before
producing one) appear as provisional rows instead of being hidden.`,
	Args: cobra.NoArgs,
	RunE: runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if _, err := restoreStore(ctx); err != nil {
		return err
	}

	rows := trk.MergedView()
	if len(rows) == 0 {
		fmt.Println("No documents yet. Add some with 'ragdex upload'.")
		return nil
	}

	fmt.Printf("%-36s %-12s %8s %10s  %s\n", "NAME", "STATE", "CHUNKS", "SIZE", "UPDATED")
	fmt.Println("--------------------------------------------------------------------------------")
	for _, row := range rows {
		fmt.Printf("%-36s %-12s %8s %10s  %s\n",
			truncate(row.DisplayName, 36),
			stateLabel(row),
			countColumn(row),
			sizeColumn(row),
			row.UpdateTime,
		)
		if row.Detail != "" {
			fmt.Printf("    ↳ %s\n", row.Detail)
		}
	}

	step := trk.Step()
	fmt.Printf("\nStep %d/3: %s\n", step, step)
	return nil
}

func stateLabel(row tracker.Row) string {
	if row.Provisional {
		return string(row.State) + "*"
	}
	return string(row.State)
}

func countColumn(row tracker.Row) string {
	if row.Provisional || row.ChunkCount == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", row.ChunkCount)
}

func sizeColumn(row tracker.Row) string {
	if row.Provisional || row.SizeBytes == 0 {
		return "-"
	}
	return formatSize(row.SizeBytes)
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
