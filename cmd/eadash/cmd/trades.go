package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/eadash/dashboard"
	"github.com/rustyeddy/eadash/journal"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List recent trades from the ledger",
	Long: `List the most recent trades, newest first.

Examples:
  eadash trades
  eadash trades --limit 10 --org
  eadash trades --csv > trades.csv
  eadash trades show 42`,
	Args: cobra.NoArgs,
	RunE: runTrades,
}

var tradesShowCmd = &cobra.Command{
	Use:   "show <trade-id>",
	Short: "Show one trade as an Org entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runTradesShow,
}

var (
	tradesLimit int
	tradesOrg   bool
	tradesCSV   bool
)

func init() {
	rootCmd.AddCommand(tradesCmd)
	tradesCmd.AddCommand(tradesShowCmd)

	tradesCmd.Flags().IntVarP(&tradesLimit, "limit", "n", dashboard.MaxTrades, "number of trades (1-50)")
	tradesCmd.Flags().BoolVar(&tradesOrg, "org", false, "print as Org mode entries")
	tradesCmd.Flags().BoolVar(&tradesCSV, "csv", false, "print as CSV")
	tradesCmd.MarkFlagsMutuallyExclusive("org", "csv")
}

func runTrades(cmd *cobra.Command, args []string) error {
	svc, j, err := openService()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := svc.Trades(context.Background(), tradesLimit)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	switch {
	case tradesCSV:
		return journal.WriteTradesCSV(os.Stdout, trades)
	case tradesOrg:
		fmt.Println(journal.FormatTradesOrg(trades))
		return nil
	}

	if len(trades) == 0 {
		fmt.Println("No trades recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTICKET\tSYMBOL\tTYPE\tVOLUME\tOPEN\tCLOSE\tPROFIT\tSTATUS\tCLOSED AT")
	for _, t := range trades {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%.2f\t%.5f\t%.5f\t%.2f\t%s\t%s\n",
			t.ID, t.Ticket, t.Symbol, t.Side, t.Volume, t.OpenPrice, t.ClosePrice, t.Profit, t.Status, t.CloseTime)
	}
	return w.Flush()
}

func runTradesShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("trade id: %w", err)
	}

	_, j, err := openService()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(context.Background(), id)
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}
