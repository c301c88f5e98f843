package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/ironsheep/chart-ohlc/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Serve the recognizer as MCP tools using JSON-RPC 2.0 over stdin/stdout.

Configure it in your MCP client as a stdio server running:
  chart-ohlc serve --config chart-ohlc.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rec, err := newRecognizer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("[INFO] chart-ohlc %s serving MCP on stdio", Version)
	srv := server.New(rec, cfg.BatchOptions(), Version)
	return srv.Run(ctx)
}
