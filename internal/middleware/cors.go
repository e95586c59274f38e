package middleware

import (
	"github.com/blogium/blogium-api/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows the SPA origins. Tokens travel in the Authorization header,
// so credentials stay off.
func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders:    fiber.HeaderXRequestID,
		AllowCredentials: false,
		MaxAge:           600,
	})
}
