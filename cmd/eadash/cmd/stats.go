package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show performance statistics over closed trades",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	svc, j, err := openService()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := context.Background()
	st, err := svc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("compute stats: %w", err)
	}
	status, err := svc.Status(ctx)
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}

	running := "stopped"
	if status.IsRunning {
		running = "running"
	}

	fmt.Printf("EA:            %s (last update %s)\n", running, status.LastUpdate.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Balance:       %.2f  Equity: %.2f\n", status.Balance, status.Equity)
	fmt.Printf("Total trades:  %d (%d won, %d lost)\n", st.TotalTrades, st.WinningTrades, st.LosingTrades)
	fmt.Printf("Win rate:      %.2f%%\n", st.WinRate)
	fmt.Printf("Total profit:  %.2f\n", st.TotalProfit)
	fmt.Printf("Avg win:       %.2f\n", st.AvgWin)
	fmt.Printf("Avg loss:      %.2f\n", st.AvgLoss)
	fmt.Printf("Profit factor: %.2f\n", st.ProfitFactor)
	return nil
}
