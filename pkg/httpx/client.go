// Package httpx holds the outgoing HTTP plumbing shared by the Carson Living
// and Eagle Eye clients.
package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/carson/pkg/idx"
	"github.com/aussiebroadwan/carson/pkg/slogx"
)

// Doer performs a single HTTP exchange. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	// Timeout bounds a whole exchange, including reading the body (default 30s).
	Timeout time.Duration

	RateLimit RateLimitConfig

	// Logger receives one record per request. nil falls back to the context logger.
	Logger *slog.Logger

	// Base is the innermost transport (default http.DefaultTransport).
	Base http.RoundTripper
}

// NewClient builds an *http.Client that stamps request ids, rate limits per
// host and logs every exchange.
func NewClient(cfg ClientConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var rt http.RoundTripper = cfg.Base
	if rt == nil {
		rt = http.DefaultTransport
	}
	rt = slogx.NewTransport(rt, cfg.Logger)
	rt = NewRateLimitTransport(rt, cfg.RateLimit)
	rt = RequestIDTransport{Base: rt}

	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}

// RequestIDTransport sets an X-Request-ID header on requests that lack one.
type RequestIDTransport struct {
	Base http.RoundTripper
}

func (t RequestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if req.Header.Get(idx.HeaderRequestID) == "" {
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set(idx.HeaderRequestID, idx.New().String())
	}
	return base.RoundTrip(req)
}

// SetHeaders copies every value of h onto req, replacing existing keys.
func SetHeaders(req *http.Request, h http.Header) {
	for key, values := range h {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}
