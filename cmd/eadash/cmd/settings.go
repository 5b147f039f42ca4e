package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/eadash/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or reset the EA settings",
	Long: `Manage the settings record the agent polls.

Subcommands:
  show   - Print the current settings
  reset  - Restore every field to its default

Examples:
  eadash settings show
  eadash settings reset`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore every setting to its default",
	Args:  cobra.NoArgs,
	RunE:  runSettingsReset,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsResetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	svc, j, err := openService()
	if err != nil {
		return err
	}
	defer j.Close()

	s, err := svc.Settings(context.Background())
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	return printSettings(s)
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	svc, j, err := openService()
	if err != nil {
		return err
	}
	defer j.Close()

	s, err := svc.ReplaceSettings(context.Background(), settings.Partial{})
	if err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	fmt.Println("✓ Settings reset to defaults")
	return printSettings(s)
}

func printSettings(s settings.Settings) error {
	out, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
