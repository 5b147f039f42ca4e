package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the eadash CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("eadash version %s\n", version)
		fmt.Println("Telemetry dashboard and control channel for a trading EA")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
