// Package seed fills a database with demo users, articles, favorites and
// follows for local development.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/models"
	"github.com/blogium/blogium-api/internal/principal"
	"github.com/blogium/blogium-api/internal/services"
)

const DefaultPassword = "blogium-demo"

type Options struct {
	Users           int
	ArticlesPerUser int
	Password        string
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

type Result struct {
	Users     int
	Articles  int
	Favorites int
	Follows   int
}

type topic struct {
	title string
	tags  []string
}

var topics = []topic{
	{"Getting started with Go modules", []string{"go", "tooling"}},
	{"Why I moved my blog to Postgres", []string{"postgres", "databases"}},
	{"Writing tests that read like documentation", []string{"testing", "go"}},
	{"A gentle introduction to Redis", []string{"redis", "databases"}},
	{"Designing REST APIs people enjoy", []string{"api", "design"}},
	{"What I learned shipping on Fridays", []string{"devops", "culture"}},
	{"Structured logging in practice", []string{"observability", "go"}},
	{"The case for boring technology", []string{"design", "culture"}},
}

var ErrInvalidOptions = errors.New("users and articles must be positive")

// Run is safe to repeat: existing demo users are reused and favorites and
// follows are only inserted once. Articles are always added.
func Run(ctx context.Context, db *gorm.DB, articles *services.ArticleService, opts Options) (*Result, error) {
	if opts.Users < 1 || opts.ArticlesPerUser < 0 {
		return nil, ErrInvalidOptions
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), opts.HashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashed := string(hash)

	res := &Result{}
	users := make([]models.User, 0, opts.Users)
	for i := 1; i <= opts.Users; i++ {
		username := fmt.Sprintf("demo_%d", i)
		bio := fmt.Sprintf("Demo writer number %d.", i)
		var user models.User
		err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				Username:      username,
				Email:         username + "@blogium.dev",
				PasswordHash:  &hashed,
				Bio:           &bio,
				EmailVerified: true,
			}
			if err := db.WithContext(ctx).Create(&user).Error; err != nil {
				return nil, fmt.Errorf("failed to create user %s: %w", username, err)
			}
			res.Users++
		case err != nil:
			return nil, fmt.Errorf("failed to load user %s: %w", username, err)
		}
		users = append(users, user)
	}

	slugs := make([][]string, len(users))
	for i, user := range users {
		author := principal.Principal{ID: user.ID, Username: user.Username, Email: user.Email}
		for j := 0; j < opts.ArticlesPerUser; j++ {
			t := topics[(i*opts.ArticlesPerUser+j)%len(topics)]
			view, err := articles.CreateArticle(ctx, author, dto.CreateArticleRequest{
				Title:       t.title,
				Description: fmt.Sprintf("%s, as told by %s.", t.title, user.Username),
				Body:        body(t, user.Username),
				TagList:     t.tags,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create article for %s: %w", user.Username, err)
			}
			slugs[i] = append(slugs[i], view.Slug)
			res.Articles++
		}
	}

	// Every user follows the next one and favorites their first article.
	if len(users) > 1 {
		for i, user := range users {
			next := (i + 1) % len(users)

			follow := db.WithContext(ctx).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.UserFollow{FollowerID: user.ID, FollowingID: users[next].ID})
			if follow.Error != nil {
				return nil, fmt.Errorf("failed to create follow: %w", follow.Error)
			}
			res.Follows += int(follow.RowsAffected)

			if len(slugs[next]) == 0 {
				continue
			}
			fan := principal.Principal{ID: user.ID, Username: user.Username}
			view, err := articles.FavoriteArticle(ctx, fan, slugs[next][0])
			if err != nil {
				return nil, fmt.Errorf("failed to favorite article: %w", err)
			}
			if view.Favorited {
				res.Favorites++
			}
		}
	}

	slog.Info("seed complete",
		"users", res.Users,
		"articles", res.Articles,
		"favorites", res.Favorites,
		"follows", res.Follows,
	)
	return res, nil
}

func body(t topic, author string) string {
	return fmt.Sprintf(`# %s

This is a demo article written by %s. It exists so the feed, tags and
search have something to show while you work on Blogium locally.

Tags on this post: %v. Replace it with your own writing whenever you like.
`, t.title, author, t.tags)
}
