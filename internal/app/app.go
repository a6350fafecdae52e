package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/carson/pkg/carson"
	"github.com/aussiebroadwan/carson/pkg/httpx"
	"github.com/aussiebroadwan/carson/pkg/slogx"
)

const (
	// BuildVersion is overridden at build time via -ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the Carson Living client from a Config and runs CLI
// commands against it.
type Application struct {
	cfg    Config
	logger *slog.Logger
	out    io.Writer

	transport  http.RoundTripper
	httpClient *http.Client
	auth       *carson.Auth
	client     *carson.Client
}

// Option adjusts an Application before it is wired.
type Option func(*Application)

// WithOutput sets where command output goes (default: discarded).
func WithOutput(w io.Writer) Option { return func(app *Application) { app.out = w } }

// WithLogger replaces the logger built from the config.
func WithLogger(l *slog.Logger) Option { return func(app *Application) { app.logger = l } }

// WithTransport sets the innermost HTTP transport (default http.DefaultTransport).
func WithTransport(rt http.RoundTripper) Option { return func(app *Application) { app.transport = rt } }

// New creates an Application. No request is made until a command runs.
func New(cfg Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		out: io.Discard,
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.logger == nil {
		app.logger = slogx.New(slogx.Config{
			Service: "carson",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}
	app.httpClient = app.newHTTPClient(app.transport)

	if err := app.initClient(); err != nil {
		return nil, err
	}
	return app, nil
}

func (app *Application) newHTTPClient(base http.RoundTripper) *http.Client {
	return httpx.NewClient(httpx.ClientConfig{
		Timeout: app.cfg.HTTPTimeout,
		RateLimit: httpx.RateLimitConfig{
			RequestsPerWindow: app.cfg.RateLimit,
			Window:            time.Minute,
			Burst:             app.cfg.RateBurst,
		},
		Logger: app.logger,
		Base:   base,
	})
}

func (app *Application) initClient() error {
	opts := []carson.Option{
		carson.WithBaseURL(app.cfg.APIURL),
		carson.WithHTTPClient(app.httpClient),
		carson.WithLogger(app.logger),
		carson.WithTokenUpdateHook(app.tokenIssued),
	}
	if app.cfg.Token != "" {
		opts = append(opts, carson.WithToken(app.cfg.Token))
	}

	auth, err := carson.NewAuth(app.cfg.Username, app.cfg.Password, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize authentication: %w", err)
	}

	app.auth = auth
	app.client = carson.NewClient(auth, carson.WithEagleEyeURL(app.cfg.EagleEyeURL))
	return nil
}

// tokenIssued records a login. The token itself is never logged.
func (app *Application) tokenIssued(string) {
	app.logger.Info("logged in", "username", app.cfg.Username, "expires_at", app.auth.TokenExpiration())
}

func (app *Application) Client() *carson.Client { return app.client }

// Run executes the command named by args[0].
func (app *Application) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage("missing command")
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return errUsage(fmt.Sprintf("unknown command %q", args[0]))
	}

	ctx = slogx.WithContext(ctx, app.logger)
	app.logger.Debug("running command", "command", args[0])
	return cmd.run(app, ctx, args[1:])
}
