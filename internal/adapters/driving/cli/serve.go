package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driving/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves the query pipeline over HTTP:

  GET  /health
  POST /ask     {"question": "...", "k": 12, "hybrid": true}
  POST /search  {"query": "...", "k": 12}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("query service not configured")
	}

	addr := serveAddr
	if addr == "" && appConfig != nil {
		addr = appConfig.API.Addr
	}

	server, err := api.NewServer(queryService)
	if err != nil {
		return err
	}
	return server.Run(cmd.Context(), addr)
}
