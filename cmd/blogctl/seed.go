package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/blogium/blogium-api/internal/database"
	"github.com/blogium/blogium-api/internal/events"
	"github.com/blogium/blogium-api/internal/seed"
	"github.com/blogium/blogium-api/internal/services"
)

func newSeedCommand() *cobra.Command {
	var opts seed.Options

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users, articles, favorites and follows",
		Long: `Insert demo data for local development.

Demo users are named demo_1..demo_N and share one password. Running the
command again reuses the existing users and adds more articles.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := database.Migrate(database.DB); err != nil {
				return err
			}

			notifications := services.NewNotificationService(database.DB)
			articles := services.NewArticleService(database.DB, notifications, events.NewDispatcher())

			res, err := seed.Run(cmd.Context(), database.DB, articles, opts)
			if err != nil {
				slog.Error("seed failed", "error", err)
				return err
			}
			cmd.Printf("seeded %d users, %d articles, %d favorites, %d follows\n",
				res.Users, res.Articles, res.Favorites, res.Follows)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Users, "users", 5, "number of demo users")
	cmd.Flags().IntVar(&opts.ArticlesPerUser, "articles", 3, "articles per demo user")
	cmd.Flags().StringVar(&opts.Password, "password", seed.DefaultPassword, "password for every demo user")
	return cmd
}
