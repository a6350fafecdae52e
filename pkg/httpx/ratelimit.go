package httpx

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the client-side rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window.
	// Zero disables limiting.
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// DefaultRateLimit keeps a single CLI run well clear of upstream throttling
// without slowing normal use: 60 requests per minute per host, burst 20.
// Override with: RATELIMIT_CLIENT_REQUESTS, RATELIMIT_CLIENT_WINDOW_SEC, RATELIMIT_CLIENT_BURST
var DefaultRateLimit = RateLimitConfig{
	RequestsPerWindow: 60,
	Window:            time.Minute,
	Burst:             20,
}

func init() {
	DefaultRateLimit = ParseRateLimitFromEnv("CLIENT", DefaultRateLimit)
}

// ParseRateLimitFromEnv reads rate limit configuration from environment variables.
// Environment variables follow the pattern: RATELIMIT_{prefix}_{field}
// For example: RATELIMIT_CLIENT_REQUESTS, RATELIMIT_CLIENT_WINDOW_SEC, RATELIMIT_CLIENT_BURST
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests >= 0 {
			config.RequestsPerWindow = requests
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// Enabled reports whether the config limits anything.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0
}

// RateLimitTransport delays outgoing requests so that each host sees at most
// the configured rate. The Carson API and every Eagle Eye brand subdomain get
// their own bucket.
type RateLimitTransport struct {
	Base http.RoundTripper

	limit    rate.Limit
	burst    int
	limiters sync.Map // host -> *rate.Limiter
}

// NewRateLimitTransport wraps base with cfg. A disabled cfg yields a
// pass-through transport.
func NewRateLimitTransport(base http.RoundTripper, cfg RateLimitConfig) *RateLimitTransport {
	t := &RateLimitTransport{Base: base, limit: rate.Inf}
	if cfg.Enabled() {
		t.limit = rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds())
		t.burst = max(cfg.Burst, 1)
	}
	return t
}

func (t *RateLimitTransport) limiter(host string) *rate.Limiter {
	if l, ok := t.limiters.Load(host); ok {
		return l.(*rate.Limiter)
	}
	l, _ := t.limiters.LoadOrStore(host, rate.NewLimiter(t.limit, t.burst))
	return l.(*rate.Limiter)
}

func (t *RateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if t.limit != rate.Inf {
		if err := t.limiter(req.URL.Host).Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	return base.RoundTrip(req)
}
