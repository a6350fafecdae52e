package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/carson/pkg/httpx"
	"github.com/aussiebroadwan/carson/pkg/idx"
	"github.com/aussiebroadwan/carson/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	t.Run("defaults when unset", func(t *testing.T) {
		require.Equal(t, def, httpx.ParseRateLimitFromEnv("UNSET_PREFIX", def))
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "10")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
		t.Setenv("RATELIMIT_TEST_BURST", "3")

		cfg := httpx.ParseRateLimitFromEnv("TEST", def)
		require.Equal(t, 10, cfg.RequestsPerWindow)
		require.Equal(t, 30*time.Second, cfg.Window)
		require.Equal(t, 3, cfg.Burst)
	})

	t.Run("zero requests disables", func(t *testing.T) {
		t.Setenv("RATELIMIT_OFF_REQUESTS", "0")
		require.False(t, httpx.ParseRateLimitFromEnv("OFF", def).Enabled())
	})

	t.Run("ignores garbage", func(t *testing.T) {
		t.Setenv("RATELIMIT_BAD_BURST", "lots")
		require.Equal(t, def, httpx.ParseRateLimitFromEnv("BAD", def))
	})
}

func TestNewClientStampsRequestID(t *testing.T) {
	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get(idx.HeaderRequestID))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := httpx.NewClient(httpx.ClientConfig{Logger: slogx.Discard()})

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	_, err = idx.Parse(seen.Load().(string))
	require.NoError(t, err)
}

func TestRequestIDTransportKeepsExisting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "fixed", r.Header.Get(idx.HeaderRequestID))
	}))
	defer srv.Close()

	client := &http.Client{Transport: httpx.RequestIDTransport{}}
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set(idx.HeaderRequestID, "fixed")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestRateLimitTransportBurst(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	// 1 request per hour with a burst of 2: the third request has to wait
	// and gives up when its context deadline passes.
	rt := httpx.NewRateLimitTransport(nil, httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 2})
	client := &http.Client{Transport: rt, Timeout: 100 * time.Millisecond}

	for range 2 {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	_, err := client.Get(srv.URL)
	require.Error(t, err)
	require.EqualValues(t, 2, calls.Load())
}

func TestSetHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "old")

	httpx.SetHeaders(req, http.Header{"User-Agent": {"new"}, "X-Device-Type": {"ios"}})
	require.Equal(t, "new", req.Header.Get("User-Agent"))
	require.Equal(t, "ios", req.Header.Get("X-Device-Type"))
}
