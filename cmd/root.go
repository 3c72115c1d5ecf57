package cmd

import (
	"log/slog"
	"os"

	"github.com/krishkalaria12/snapvault/logging"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "snapvault",
	Short:         "Multi-tenant image hosting API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	slog.SetDefault(logging.CreateLogger())
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to execute command", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
