package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/blogium/blogium-api/internal/database"
	"github.com/blogium/blogium-api/internal/models"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := database.Migrate(database.DB); err != nil {
				slog.Error("migration failed", "error", err)
				return err
			}
			slog.Info("migration complete", "models", len(models.All()))
			return nil
		},
	}
}
