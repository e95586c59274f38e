package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/blogium/blogium-api/internal/config"
	"github.com/blogium/blogium-api/internal/database"
	"github.com/blogium/blogium-api/internal/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "blogctl",
		Short:         "Administrative commands for the Blogium API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			logging.Setup(cfg.IsProduction())
			if err := database.Connect(cfg); err != nil {
				slog.Error("database connection failed", "error", err)
				return err
			}
			return nil
		},
	}

	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSeedCommand())
	return root
}
