package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/ragdex/internal/client"
)

var (
	askMaxChunks   int
	askTemperature float64
	askStream      bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>...",
	Short: "Ask a question grounded in the active store",
	Long: `Ask a question answered from the documents of the active store.

The answer is synthesized from matching document chunks and returned with
citations pointing back at the source documents. With --stream tokens are
printed as they arrive.

Examples:
  ragdex ask "what does the deployment doc say about rollbacks?"
  ragdex ask --stream how are invoices archived`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askMaxChunks, "max-chunks", 0, "maximum document chunks to ground on (0 uses the configured default)")
	askCmd.Flags().Float64Var(&askTemperature, "temperature", -1, "sampling temperature (negative uses the configured default)")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer token by token")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	storeID, err := restoreStore(ctx)
	if err != nil {
		return err
	}

	req := client.AskRequest{
		Question: strings.Join(args, " "),
		StoreID:  storeID,
	}

	maxChunks := askMaxChunks
	if maxChunks == 0 {
		maxChunks = cfg.MaxChunks
	}
	if maxChunks > 0 {
		req.MaxChunks = &maxChunks
	}

	temperature := askTemperature
	if temperature < 0 {
		temperature = cfg.Temperature
	}
	if temperature >= 0 {
		req.Temperature = &temperature
	}

	if askStream {
		err := svc.AskStream(ctx, req, func(token string) error {
			fmt.Print(token)
			return nil
		})
		fmt.Println()
		if err != nil {
			return fmt.Errorf("ask: %w", err)
		}
		return nil
	}

	resp, err := svc.Ask(ctx, req)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Println(resp.Answer)
	if len(resp.Citations) > 0 {
		fmt.Println("\nSources:")
		for i, c := range resp.Citations {
			fmt.Printf("  [%d] %s\n", i+1, citationLabel(c))
			if c.Snippet != "" {
				fmt.Printf("      %s\n", truncate(strings.TrimSpace(c.Snippet), 96))
			}
		}
	}

	if verbose {
		printRequestStats()
	}
	return nil
}

func citationLabel(c client.Citation) string {
	switch {
	case c.DocumentDisplayName != "":
		return c.DocumentDisplayName
	case c.Title != "":
		return c.Title
	case c.DocumentPath != "":
		return c.DocumentPath
	default:
		return c.URI
	}
}
