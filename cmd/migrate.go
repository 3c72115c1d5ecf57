package cmd

import (
	"fmt"
	"log/slog"

	"github.com/krishkalaria12/snapvault/config"
	"github.com/krishkalaria12/snapvault/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates or updates the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.Connect(cfg.DatabaseURL, gormLogLevel())
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(db); err != nil {
				slog.Error("failed to close database", "error", err)
			}
		}()

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		slog.Info("database migrated")
		return nil
	},
}
