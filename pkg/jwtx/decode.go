package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed reports a token that cannot be decoded.
var ErrMalformed = errors.New("jwtx: malformed token")

// Token is a decoded bearer token.
type Token struct {
	// Raw is the encoded form, as sent in the Authorization header.
	Raw string

	// Claims is the typed view of Payload.
	Claims Claims

	// Payload holds every claim exactly as decoded.
	Payload jwt.MapClaims
}

// Decode parses a JWT without verifying its signature. The client never holds
// the signing key; the server verifies the token on every request and answers
// 401 when it is no longer acceptable.
func Decode(raw string) (*Token, error) {
	parser := jwt.NewParser()

	payload := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var claims Claims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return &Token{Raw: raw, Claims: claims, Payload: payload}, nil
}

// Expiration is shorthand for t.Claims.Expiration().
func (t *Token) Expiration() time.Time {
	return t.Claims.Expiration()
}
