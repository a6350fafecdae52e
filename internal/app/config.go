package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/carson/pkg/carson"
	"github.com/aussiebroadwan/carson/pkg/eagleeye"
	"github.com/aussiebroadwan/carson/pkg/httpx"
)

type Config struct {
	Username string `yaml:"username"` // Carson Living account (CARSON_USERNAME)
	Password string `yaml:"password"` // Optional: prompted for when neither it nor a token is set
	Token    string `yaml:"token"`    // Optional: previously issued JWT, saves a login

	APIURL      string        `yaml:"api_url"`      // Carson Living API root (default: carson.DefaultBaseURL)
	EagleEyeURL string        `yaml:"eagleeye_url"` // Eagle Eye URL template (default: eagleeye.DefaultURLTemplate)
	HTTPTimeout time.Duration `yaml:"http_timeout"` // Per-request timeout (default: 30s)
	RateLimit   int           `yaml:"rate_limit"`   // Requests per minute per host, 0 disables (default: 60, or RATELIMIT_CLIENT_REQUESTS)
	RateBurst   int           `yaml:"rate_burst"`   // Burst above RateLimit (default: 20)

	Env       string `yaml:"env"`        // Environment (dev, prod) (default: prod)
	LogLevel  string `yaml:"log_level"`  // Log level (debug, info, warn, error) (default: warn)
	LogFormat string `yaml:"log_format"` // Log format (json, text) (default: text)
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		APIURL:      carson.DefaultBaseURL,
		EagleEyeURL: eagleeye.DefaultURLTemplate,
		HTTPTimeout: 30 * time.Second,
		RateLimit:   httpx.DefaultRateLimit.RequestsPerWindow,
		RateBurst:   httpx.DefaultRateLimit.Burst,
		Env:         "prod",
		LogLevel:    "warn",
		LogFormat:   "text",
	}
}

// LoadConfig reads the YAML file at path over the defaults, then overlays
// environment variables. An empty path or a missing file leaves the
// defaults in place.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays environment variables. They take precedence over the file.
func applyEnv(cfg *Config) {
	cfg.Username = getEnvOrDefault("CARSON_USERNAME", cfg.Username)
	cfg.Password = getEnvOrDefault("CARSON_PASSWORD", cfg.Password)
	cfg.Token = getEnvOrDefault("CARSON_TOKEN", cfg.Token)
	cfg.APIURL = getEnvOrDefault("CARSON_API_URL", cfg.APIURL)
	cfg.EagleEyeURL = getEnvOrDefault("CARSON_EAGLEEYE_URL", cfg.EagleEyeURL)
	cfg.HTTPTimeout = getEnvDurationOrDefault("CARSON_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.RateLimit = getEnvIntOrDefault("CARSON_RATE_LIMIT", cfg.RateLimit)
	cfg.RateBurst = getEnvIntOrDefault("CARSON_RATE_BURST", cfg.RateBurst)
	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
}

// Validate reports settings the client cannot work with.
func (c Config) Validate() error {
	if c.Username == "" && c.Token == "" {
		return errors.New("config: a username or a token is required")
	}
	if c.APIURL == "" {
		return errors.New("config: api_url must not be empty")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: rate_limit must not be negative, got %d", c.RateLimit)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
