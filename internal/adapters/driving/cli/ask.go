package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

var (
	askK         int
	askHybrid    bool
	askRerank    bool
	askGrounding bool
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the indexed corpus",
	Long: `Runs the full pipeline: retrieve relevant chunks, assemble a context
pack, and generate a cited answer.

Retrieval is vector-only by default. --hybrid adds keyword search,
--rerank re-orders results with a cross-encoder, and --grounding
supplements weak local evidence with web search.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "k", "k", 0, "number of chunks to retrieve")
	askCmd.Flags().BoolVar(&askHybrid, "hybrid", false, "combine keyword and vector retrieval")
	askCmd.Flags().BoolVar(&askRerank, "rerank", false, "rerank results with a cross-encoder")
	askCmd.Flags().BoolVar(&askGrounding, "grounding", false, "allow web search when local evidence is weak")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("query service not configured")
	}

	k := askK
	if k == 0 && appConfig != nil {
		k = appConfig.Pipeline.K
	}

	result, err := queryService.Ask(cmd.Context(), args[0], domain.AskOptions{
		K:         k,
		Hybrid:    askHybrid,
		Rerank:    askRerank,
		Grounding: askGrounding,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(result.Answer)
	cmd.Println()
	cmd.Printf("(%s, k=%d, %d sources)\n", result.SearchType, result.K, result.Sources)
	return nil
}
