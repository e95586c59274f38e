package principal

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/golang-jwt/jwt/v5"
)

func TestFromClaims(t *testing.T) {
	c := qt.New(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "42",
		"email":    "ada@example.com",
		"username": "ada",
	})
	p, err := FromClaims(token)
	c.Assert(err, qt.IsNil)
	c.Assert(p, qt.Equals, Principal{ID: 42, Username: "ada", Email: "ada@example.com"})
	c.Assert(p.Authenticated(), qt.IsTrue)
}

func TestFromClaimsRejectsBadSubject(t *testing.T) {
	c := qt.New(t)

	for _, sub := range []interface{}{"", "abc", "0", 7} {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub})
		_, err := FromClaims(token)
		c.Assert(err, qt.IsNotNil, qt.Commentf("sub=%v", sub))
	}
}

func TestAnonymous(t *testing.T) {
	qt.Assert(t, Anonymous.Authenticated(), qt.IsFalse)
}
