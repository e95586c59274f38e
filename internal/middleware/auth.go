package middleware

import (
	"github.com/blogium/blogium-api/internal/config"
	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/principal"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const tokenKey = "user"

// JWTProtected rejects requests without a valid bearer token and stores the
// caller's principal on the context.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ContextKey: tokenKey,
		SuccessHandler: func(c *fiber.Ctx) error {
			p, err := principalFrom(c)
			if err != nil {
				return unauthorized(c)
			}
			principal.Set(c, p)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

// OptionalJWT resolves the principal when a valid token is present and
// otherwise lets the request through as anonymous.
func OptionalJWT(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ContextKey: tokenKey,
		SuccessHandler: func(c *fiber.Ctx) error {
			if p, err := principalFrom(c); err == nil {
				principal.Set(c, p)
			}
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Next()
		},
	})
}

func principalFrom(c *fiber.Ctx) (principal.Principal, error) {
	token, _ := c.Locals(tokenKey).(*jwt.Token)
	if token == nil {
		return principal.Anonymous, jwt.ErrTokenMalformed
	}
	return principal.FromClaims(token)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Unauthorized: invalid or expired token",
	})
}
