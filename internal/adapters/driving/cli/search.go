package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

var (
	searchLimit  int
	searchHybrid bool
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed chunks without generating an answer",
	Long: `Retrieves and hydrates the most relevant chunks for a query.
Useful for inspecting what evidence an ask would be built on.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchHybrid, "hybrid", false, "combine keyword and vector retrieval")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("query service not configured")
	}

	results, err := queryService.Search(cmd.Context(), args[0], domain.AskOptions{
		K:      searchLimit,
		Hybrid: searchHybrid,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, results[i].ID, results[i].Score)
		if results[i].Text != "" {
			cmd.Printf("      %s\n", results[i].Text)
		}
		cmd.Println()
	}
	return nil
}
