package routes

import (
	"time"

	"github.com/blogium/blogium-api/internal/apps"
	"github.com/blogium/blogium-api/internal/config"
	"github.com/blogium/blogium-api/internal/handlers"
	"github.com/blogium/blogium-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	articleHandler *handlers.ArticleHandler,
	commentHandler *handlers.CommentHandler,
	userHandler *handlers.UserHandler,
	notificationHandler *handlers.NotificationHandler,
	plugins []apps.Plugin,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	protected := middleware.JWTProtected(cfg)
	optional := middleware.OptionalJWT(cfg)

	api.Get("/health", healthHandler.Check)

	// Auth: public, stricter limit of 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/verify-email", authHandler.VerifyEmail)
	auth.Post("/resend-code", authHandler.ResendCode)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Get("/:provider", authHandler.OAuthRedirect)
	auth.Get("/:provider/callback", authHandler.OAuthCallback)

	// Articles: reads personalize when a token is present
	api.Get("/articles", optional, articleHandler.List)
	api.Get("/articles/:slug", optional, articleHandler.Get)
	api.Post("/articles", protected, articleHandler.Create)
	api.Put("/articles/:slug", protected, articleHandler.Update)
	api.Delete("/articles/:slug", protected, articleHandler.Delete)
	api.Post("/articles/:slug/favorite", protected, articleHandler.Favorite)
	api.Delete("/articles/:slug/favorite", protected, articleHandler.Unfavorite)

	api.Get("/articles/:slug/comments", optional, commentHandler.List)
	api.Post("/articles/:slug/comments", protected, commentHandler.Add)
	api.Delete("/articles/:slug/comments/:id", protected, commentHandler.Delete)

	api.Get("/tags", articleHandler.Tags)

	// Users
	api.Get("/users/current", protected, userHandler.Current)
	api.Put("/users", protected, userHandler.Update)
	api.Get("/users/:username", optional, userHandler.Profile)
	api.Post("/users/:username/follow", protected, userHandler.Follow)
	api.Delete("/users/:username/follow", protected, userHandler.Unfollow)

	// Notifications
	api.Get("/notifications", protected, notificationHandler.List)
	api.Get("/notifications/unread-count", protected, notificationHandler.UnreadCount)
	api.Post("/notifications/read-all", protected, notificationHandler.MarkAllRead)
	api.Post("/notifications/:id/read", protected, notificationHandler.MarkRead)

	// Plugin routes go last: the group middleware matches every /api path,
	// so it must only see requests no core route answered.
	plugin := api.Group("", protected)
	for _, p := range plugins {
		p.RegisterRoutes(plugin, db, cfg)
	}
}
