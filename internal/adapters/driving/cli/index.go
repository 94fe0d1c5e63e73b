package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed chunks and rebuild the search indexes",
	Long: `Embeds every persisted chunk and upserts the vectors to the vector
index. When a keyword engine is configured its index is rebuilt too.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	stats, err := ingestService.BuildIndexes(cmd.Context())
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Upserted %d vector(s) to namespace %q\n", stats.Upserts, stats.Namespace)
	if stats.Keyword > 0 {
		cmd.Printf("Indexed %d chunk(s) for keyword search\n", stats.Keyword)
	}
	return nil
}
