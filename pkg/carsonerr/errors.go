// Package carsonerr defines the error taxonomy shared by the Carson Living
// and Eagle Eye clients.
//
// Every failure surfaced by the SDK is a *Error. Its Kind places it in the
// hierarchy:
//
//	ErrCarson
//	├── ErrCommunication  malformed, unparseable or unexpected response
//	├── ErrAPI            well-formed response reporting a failure
//	│   └── ErrAuthentication  login failed
//	└── ErrToken          malformed token string
//
// Use errors.Is against the sentinels to test membership:
//
//	if errors.Is(err, carsonerr.ErrAPI) { ... }
package carsonerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error within the taxonomy.
type Kind uint8

const (
	KindCarson Kind = iota
	KindCommunication
	KindAPI
	KindAuthentication
	KindToken
)

func (k Kind) String() string {
	switch k {
	case KindCommunication:
		return "communication error"
	case KindAPI:
		return "api error"
	case KindAuthentication:
		return "authentication error"
	case KindToken:
		return "token error"
	default:
		return "carson error"
	}
}

// Sentinels for errors.Is. They are never returned directly.
var (
	ErrCarson         = errors.New("carson: error")
	ErrCommunication  = errors.New("carson: communication error")
	ErrAPI            = errors.New("carson: api error")
	ErrAuthentication = errors.New("carson: authentication error")
	ErrToken          = errors.New("carson: token error")
)

// Error is the concrete error type returned by the SDK.
type Error struct {
	Kind Kind

	// Message is a human-readable description.
	Message string

	// StatusCode is the HTTP status of the response, when one was received.
	StatusCode int

	// Code and Status mirror the envelope fields of a Carson API failure.
	Code   int
	Status string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("carson: ")
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether e belongs to the class named by target.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrCarson:
		return true
	case ErrCommunication:
		return e.Kind == KindCommunication
	case ErrAPI:
		return e.Kind == KindAPI || e.Kind == KindAuthentication
	case ErrAuthentication:
		return e.Kind == KindAuthentication
	case ErrToken:
		return e.Kind == KindToken
	}
	return false
}

// New returns an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of the given kind that wraps err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Carson returns a generic domain failure.
func Carson(format string, args ...any) *Error {
	return New(KindCarson, format, args...)
}

// Communication returns a failure for an unusable response.
func Communication(format string, args ...any) *Error {
	return New(KindCommunication, format, args...)
}

// API returns an application-level failure.
func API(format string, args ...any) *Error {
	return New(KindAPI, format, args...)
}

// Token returns a malformed-token failure.
func Token(format string, args ...any) *Error {
	return New(KindToken, format, args...)
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
