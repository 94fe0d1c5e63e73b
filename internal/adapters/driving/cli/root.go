// Package cli implements the vectorpenter command-line interface. The
// root command is the composition root: it loads configuration and
// wires the driven adapters into the core services on first use.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driving"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var (
	cfgFile string
	verbose bool
)

// Services used by the commands. Populated lazily by ensureServices so
// tests can inject mocks before Execute.
var (
	queryService  driving.QueryService
	ingestService driving.IngestService
)

var rootCmd = &cobra.Command{
	Use:   "vectorpenter",
	Short: "The carpenter of context: ingest, index, and ask your documents",
	Long: `Vectorpenter turns a folder of documents into an answerable corpus.

Typical flow:
  vectorpenter ingest ./docs     # parse, chunk, and persist documents
  vectorpenter index             # embed chunks and build the indexes
  vectorpenter ask "a question"  # retrieve, assemble context, and answer`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "vectorpenter.toml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI. The context is threaded to every command so
// long-running ones (serve, mcp, ingest --watch) stop on cancellation.
func Execute(ctx context.Context) error {
	defer logger.Sync()
	return rootCmd.ExecuteContext(ctx)
}
