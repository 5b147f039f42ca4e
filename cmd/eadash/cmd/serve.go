package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/eadash/api"
	"github.com/rustyeddy/eadash/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	Long: `Serve the dashboard API on the configured host and port.

The agent posts telemetry to /api/update; viewers poll /api/status,
/api/trades and /api/stats; operators use /api/control/{start|stop} and
/api/settings.

Example:
  eadash serve --db ./ea_data.db
  PORT=8080 eadash serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config and PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, j, err := openService()
	if err != nil {
		return err
	}
	defer j.Close()

	sc := cfg.APIServer()
	if servePort != 0 {
		sc.Port = servePort
	}
	server := api.NewServer(sc, svc, logging.For(logger, "api"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- server.Start() }()

	logger.Info().Str("db", cfg.Database.Path).Bool("dedupe", cfg.Ingest.Dedupe).Msg("dashboard started")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
