package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/carson/pkg/carson"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carson.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, carson.DefaultBaseURL, cfg.APIURL)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 60, cfg.RateLimit)
	require.Equal(t, "warn", cfg.LogLevel)

	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, carson.DefaultBaseURL, cfg.APIURL)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
username: ada@example.com
token: header.payload.signature
api_url: https://staging.carson.live/api/v1.4.4
http_timeout: 5s
rate_limit: 0
log_format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", cfg.Username)
	require.Equal(t, "header.payload.signature", cfg.Token)
	require.Equal(t, "https://staging.carson.live/api/v1.4.4", cfg.APIURL)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Zero(t, cfg.RateLimit)
	require.Equal(t, "json", cfg.LogFormat)
	// Untouched keys keep their defaults.
	require.Equal(t, 20, cfg.RateBurst)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "username: file-user\nhttp_timeout: 5s\nrate_burst: 3\n")

	t.Setenv("CARSON_USERNAME", "env-user")
	t.Setenv("CARSON_HTTP_TIMEOUT", "12")
	t.Setenv("CARSON_RATE_BURST", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "env-user", cfg.Username)
	require.Equal(t, 12*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 3, cfg.RateBurst)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	path := writeConfig(t, "username: [unterminated\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "config: parse")
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate())

	cfg.Token = "x"
	require.NoError(t, cfg.Validate())

	cfg.Username = "ada"
	cfg.RateLimit = -1
	require.Error(t, cfg.Validate())
}
