package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	importName   string
	importNoWait bool
)

var importCmd = &cobra.Command{
	Use:   "import <url>",
	Short: "Import a remote document by URL",
	Long: `Download and index a document from a URL.

The server fetches the URL and starts the same asynchronous indexing
operation an upload would; ragdex tracks it identically.

Examples:
  ragdex import https://example.com/handbook.pdf
  ragdex import https://example.com/spec --name "Wire spec"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "display name for the imported document")
	importCmd.Flags().BoolVar(&importNoWait, "no-wait", false, "do not wait for indexing to finish")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	storeID, err := restoreStore(ctx)
	if err != nil {
		return err
	}

	descs, err := svc.UploadURL(ctx, storeID, args[0], importName)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	var friendly []string
	if importName != "" {
		friendly = []string{importName}
	}
	trk.TrackAll(descs, friendly)

	return reportIngestion(ctx, importNoWait)
}
