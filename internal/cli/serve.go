package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/law-makers/bizcrawl/internal/config"
	"github.com/law-makers/bizcrawl/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scrape, submit and delete endpoints over HTTP",
	Long: `Starts an HTTP server exposing:

- POST /api/scrape           run a crawl: {"url": "...", "LLM": false}
- POST /api/submit-business  store one record unless its url already exists
- POST /api/delete           delete every stored record
- GET  /healthz              liveness

Crawls are served one at a time; concurrent scrape requests wait their turn.`,
	Example: `  # Serve on the default port with an in-memory store
  bizcrawl serve

  # Serve on :8080 backed by PostgreSQL
  bizcrawl serve --listen :8080 --sink postgres`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", config.DefaultListenAddr, "Address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	ensureLevel(zerolog.InfoLevel)

	srv := server.New(a.Crawler, a.Store)
	return srv.ListenAndServe(cmd.Context(), a.Config.ListenAddr)
}
