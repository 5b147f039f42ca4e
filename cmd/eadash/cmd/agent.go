package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/eadash/agent"
	"github.com/rustyeddy/eadash/journal"
	"github.com/rustyeddy/eadash/logging"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Push agent telemetry to a dashboard",
	Long: `Run the bridge that samples the trading agent and posts a telemetry
snapshot to the dashboard every interval.

After max_failures consecutive failed pushes the source connection is
reopened. If that fails the bridge exits with an error.

Example:
  eadash agent --url http://localhost:5000
  EADASH_DASHBOARD_URL=https://dash.example.com eadash agent -c agent.yaml`,
	Args: cobra.NoArgs,
	RunE: runAgent,
}

var agentURL string

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.Flags().StringVarP(&agentURL, "url", "u", "", "dashboard base URL (overrides config)")
}

func runAgent(cmd *cobra.Command, args []string) error {
	url := cfg.Agent.DashboardURL
	if agentURL != "" {
		url = agentURL
	}

	sc := cfg.Agent.Source
	src := &agent.FixedSource{
		Symbol:   cfg.Agent.Symbol,
		Mama:     sc.Mama,
		Fama:     sc.Fama,
		Position: journal.PositionStatus(sc.Position),
		Balance:  sc.Balance,
		Equity:   sc.Equity,
	}
	client := agent.NewClient(url, cfg.AgentTimeout())
	log := logging.For(logger, "agent")
	bridge := agent.NewBridge(src, client, log, cfg.Bridge())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if st, err := client.Status(ctx); err == nil {
		log.Info().Str("dashboard", url).Bool("is_running", st.IsRunning).Msg("dashboard reachable")
	} else {
		log.Warn().Err(err).Str("dashboard", url).Msg("dashboard not reachable yet")
	}

	return bridge.Run(ctx)
}
