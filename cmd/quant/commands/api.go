package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/signalengine/internal/api"
	"github.com/wonny/signalengine/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the HTTP API server.

Endpoints:
  GET  /health           - Health check
  GET  /api/signals      - Recent signals (?limit=N, max 200)
  POST /api/scan         - Run a scan now
  GET  /metrics          - Prometheus metrics

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 9090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	s, err := a.newScanner("", "", nil)
	if err != nil {
		return fmt.Errorf("init scanner: %w", err)
	}

	signalHandler := handlers.NewSignalHandler(a.store, s, a.log)
	server := api.New(a.cfg.Port, a.log, api.NewRouter(signalHandler, a.metrics, a.log, a.healthChecks()...))

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}
