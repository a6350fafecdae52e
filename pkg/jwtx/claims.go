package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims the Carson Living API puts in its access tokens.
// Only the fields the SDK reads are typed; Token.Payload keeps the rest.
type Claims struct {
	jwt.RegisteredClaims

	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Expiration returns the exp claim, or the zero time if the token has none.
func (c *Claims) Expiration() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidAt reports whether the token is still usable at now. The comparison
// is strict: a token expiring exactly at now is already expired. Tokens
// without exp are never valid so that they get replaced by a fresh login.
func (c *Claims) ValidAt(now time.Time) bool {
	exp := c.Expiration()
	if exp.IsZero() {
		return false
	}
	return exp.After(now)
}
