// Command marketsbot runs the Discord bot that lists live Polymarket sports
// markets and hands users off to a betting session.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "marketsbot",
	Short: "Discord bot for browsing live Polymarket sports markets",
	Long: `marketsbot serves the /markets slash command: pick a category, optionally
filter by keyword, page through qualifying markets, and open a betting link.`,
	SilenceUsage: true,
	RunE:         runBot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to configuration file (optional)")

	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(registerCommand())
	rootCmd.AddCommand(configCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
