package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/blogium/blogium-api/internal/apps"
	"github.com/blogium/blogium-api/internal/apps/mediumimport"
	"github.com/blogium/blogium-api/internal/apps/stats"
	"github.com/blogium/blogium-api/internal/config"
	"github.com/blogium/blogium-api/internal/database"
	"github.com/blogium/blogium-api/internal/events"
	"github.com/blogium/blogium-api/internal/handlers"
	"github.com/blogium/blogium-api/internal/logging"
	"github.com/blogium/blogium-api/internal/mail"
	"github.com/blogium/blogium-api/internal/middleware"
	"github.com/blogium/blogium-api/internal/routes"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.IsProduction())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Redis is optional; import codes fall back to the users table.
	rdb, err := database.ConnectRedis(context.Background(), cfg)
	if err != nil {
		slog.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var codeStore mediumimport.CodeStore
	if rdb != nil {
		codeStore = mediumimport.NewRedisCodeStore(rdb)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	mailer := mail.New(cfg)
	dispatcher := events.NewDispatcher()

	// Services
	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	notificationService := services.NewNotificationService(database.DB)
	articleService := services.NewArticleService(database.DB, notificationService, dispatcher)
	commentService := services.NewCommentService(database.DB, articleService, notificationService, dispatcher)
	userService := services.NewUserService(database.DB, tokens, notificationService, mailer, mail.NewComposer(cfg.FrontendURL), dispatcher)
	authService := services.NewAuthService(database.DB, cfg, tokens, mailer, dispatcher)
	oauthService := services.NewOAuthService(authService, services.DefaultProviders(cfg), httpClient)

	plugins := []apps.Plugin{
		stats.New(),
		mediumimport.New(articleService, codeStore, mediumimport.NewFeedSource(cfg.MediumFeedURL, httpClient)),
	}

	// Migrate plugin models
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(database.DB, models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, oauthService, cfg)
	healthHandler := handlers.NewHealthHandler(database.DB, len(plugins))
	articleHandler := handlers.NewArticleHandler(articleService)
	commentHandler := handlers.NewCommentHandler(commentService)
	userHandler := handlers.NewUserHandler(userService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, authHandler, healthHandler, articleHandler, commentHandler, userHandler, notificationHandler, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "plugins", len(plugins))
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
