package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "chatrouter",
	Short:   "Multi-channel webhook front-end for AI chat",
	Long:    "chatrouter receives Slack, Teams, LINE and custom-UI webhooks,\nnormalizes them into canonical messages, and dispatches AI jobs.",
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.PersistentFlags().String("config", "", "path to config.toml (defaults to CONFIG_PATH or ./config.toml)")
}

func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	return os.Getenv("CONFIG_PATH")
}
