package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var controlCmd = &cobra.Command{
	Use:   "control <start|stop>",
	Short: "Set the EA running flag",
	Long: `Start or stop the EA by writing the running flag the agent observes.

The next telemetry push also marks the EA as running, so a stop only sticks
while the agent is not pushing.

Examples:
  eadash control stop
  eadash control start`,
	ValidArgs: []string{"start", "stop"},
	Args:      cobra.ExactArgs(1),
	RunE:      runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

func runControl(cmd *cobra.Command, args []string) error {
	svc, j, err := openService()
	if err != nil {
		return err
	}
	defer j.Close()

	st, err := svc.Control(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s\n", st.Message())
	return nil
}
