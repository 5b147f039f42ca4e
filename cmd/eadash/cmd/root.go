package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/eadash/config"
	"github.com/rustyeddy/eadash/dashboard"
	"github.com/rustyeddy/eadash/ingest"
	"github.com/rustyeddy/eadash/journal"
	"github.com/rustyeddy/eadash/logging"
)

var (
	cfgFile  string
	dbPath   string
	logLevel string

	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "eadash",
	Short: "Telemetry dashboard and control channel for a trading EA",
	Long: `eadash receives live telemetry from a trading agent, keeps the trade
ledger and the current status, and lets an operator review performance and
start or stop the agent.

It provides:
  - An HTTP API for the agent and for dashboard viewers (serve)
  - A bridge that pushes agent telemetry to a dashboard (agent)
  - Local commands to inspect the ledger, statistics and settings

Configuration comes from an optional YAML or JSON file, a .env file in the
working directory and the PORT, EADASH_DB, EADASH_LOG_LEVEL and
EADASH_DASHBOARD_URL environment variables.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.Database.Path = dbPath
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	cfg = c

	l, closer, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	logger, logCloser = l, closer
	return nil
}

// openService opens the ledger and builds the dashboard service on it. The
// caller closes the returned store.
func openService() (*dashboard.Service, *journal.SQLite, error) {
	j, err := journal.NewSQLite(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	svc := dashboard.New(j, logger, ingest.WithDedupe(cfg.Ingest.Dedupe))
	return svc, j, nil
}
