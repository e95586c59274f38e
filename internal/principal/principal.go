// Package principal carries the identity of the caller through a request.
package principal

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const localsKey = "principal"

// Principal is the request-scoped caller identity. The zero value is an
// anonymous viewer.
type Principal struct {
	ID       uint
	Username string
	Email    string
}

// Anonymous is the principal of an unauthenticated request.
var Anonymous = Principal{}

func (p Principal) Authenticated() bool {
	return p.ID != 0
}

// FromClaims builds a principal from a verified JWT.
func FromClaims(token *jwt.Token) (Principal, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Anonymous, errors.New("invalid claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Anonymous, errors.New("missing sub claim")
	}

	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return Anonymous, fmt.Errorf("invalid sub claim %q", sub)
	}

	p := Principal{ID: uint(id)}
	p.Email, _ = claims["email"].(string)
	p.Username, _ = claims["username"].(string)
	return p, nil
}

// Set stores the principal on the fiber context.
func Set(c *fiber.Ctx, p Principal) {
	c.Locals(localsKey, p)
}

// Get returns the principal stored on the fiber context, or Anonymous.
func Get(c *fiber.Ctx) Principal {
	if p, ok := c.Locals(localsKey).(Principal); ok {
		return p
	}
	return Anonymous
}
