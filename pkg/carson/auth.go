package carson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
	"github.com/aussiebroadwan/carson/pkg/httpx"
	"github.com/aussiebroadwan/carson/pkg/jwtx"
	"github.com/aussiebroadwan/carson/pkg/slogx"
)

// Auth manages the JWT of a Carson Living account. A new token is obtained
// with the account credentials whenever the current one is missing or
// expired, and again when the API rejects it.
//
// Auth is not safe for concurrent use.
type Auth struct {
	username string
	password string

	baseURL string
	client  httpx.Doer
	logger  *slog.Logger
	now     func() time.Time
	onToken func(token string)

	initialToken *string
	token        *jwtx.Token
}

// Option configures an Auth.
type Option func(*Auth)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(a *Auth) { a.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient sets the transport (default http.DefaultClient).
func WithHTTPClient(c httpx.Doer) Option { return func(a *Auth) { a.client = c } }

// WithLogger sets the logger (default: the context logger).
func WithLogger(l *slog.Logger) Option { return func(a *Auth) { a.logger = l } }

// WithClock sets the time source for token expiry checks.
func WithClock(now func() time.Time) Option { return func(a *Auth) { a.now = now } }

// WithToken starts the authenticator with a previously obtained token, which
// saves a login while it remains valid.
func WithToken(token string) Option { return func(a *Auth) { a.initialToken = &token } }

// WithTokenUpdateHook registers fn to receive every token obtained by Refresh,
// for instance to persist it for the next run. It is not called for the
// token given to WithToken or SetToken.
func WithTokenUpdateHook(fn func(token string)) Option { return func(a *Auth) { a.onToken = fn } }

// NewAuth returns an authenticator for the given credentials. It fails with
// carsonerr.ErrToken when WithToken carries a malformed token.
func NewAuth(username, password string, opts ...Option) (*Auth, error) {
	a := &Auth{
		username: username,
		password: password,
		baseURL:  DefaultBaseURL,
		client:   http.DefaultClient,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.initialToken != nil {
		if err := a.SetToken(*a.initialToken); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Auth) Username() string { return a.username }

// Token returns the current token, or "" when there is none.
func (a *Auth) Token() string {
	if a.token == nil {
		return ""
	}
	return a.token.Raw
}

// TokenPayload returns every claim of the current token, or nil.
func (a *Auth) TokenPayload() jwt.MapClaims {
	if a.token == nil {
		return nil
	}
	return a.token.Payload
}

// Claims returns the typed claims of the current token, or nil.
func (a *Auth) Claims() *jwtx.Claims {
	if a.token == nil {
		return nil
	}
	c := a.token.Claims
	return &c
}

// TokenExpiration returns the exp claim of the current token, or the zero time.
func (a *Auth) TokenExpiration() time.Time {
	if a.token == nil {
		return time.Time{}
	}
	return a.token.Expiration()
}

// SetToken decodes and stores token. The signature is not checked. On
// failure the previous token stays in place and the error matches
// carsonerr.ErrToken.
func (a *Auth) SetToken(token string) error {
	t, err := jwtx.Decode(token)
	if err != nil {
		return carsonerr.Wrap(carsonerr.KindToken, err, "cannot decode invalid token")
	}

	a.token = t
	email := t.Claims.Email
	if email == "" {
		email = "<no e-mail found>"
	}
	a.log(context.Background()).Info("set access token", "email", email)
	return nil
}

// ClearToken drops the current token.
func (a *Auth) ClearToken() { a.token = nil }

// IsValid reports whether a token is set and expires strictly after now.
func (a *Auth) IsValid() bool {
	if a.token == nil {
		return false
	}
	return a.token.Claims.ValidAt(a.now())
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Refresh logs in with the account credentials and stores the new token.
// A rejected login fails with carsonerr.ErrAuthentication.
func (a *Auth) Refresh(ctx context.Context) (string, error) {
	a.log(ctx).Info("getting new access token", "username", a.username)

	req := Request{
		Method: http.MethodPost,
		Path:   EndpointLogin,
		Body:   loginRequest{Username: a.username, Password: a.password},
	}
	resp, err := a.send(ctx, req, "")
	if err != nil {
		return "", carsonerr.Wrap(carsonerr.KindAuthentication, err, "login failed")
	}
	defer resp.Body.Close()

	var out loginResponse
	if err := Envelope(&out)(resp); err != nil {
		var e *carsonerr.Error
		if errors.As(err, &e) && e.Kind == carsonerr.KindAPI {
			return "", &carsonerr.Error{
				Kind:       carsonerr.KindAuthentication,
				Message:    "login failed",
				StatusCode: e.StatusCode,
				Code:       e.Code,
				Status:     e.Status,
				Err:        err,
			}
		}
		return "", err
	}

	if err := a.SetToken(out.Token); err != nil {
		return "", err
	}
	if a.onToken != nil {
		a.onToken(out.Token)
	}
	return out.Token, nil
}

// Request describes a Carson Living call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Query is AuthenticatedQuery with DefaultRetries.
func (a *Auth) Query(ctx context.Context, req Request, handle ResponseHandler) error {
	return a.AuthenticatedQuery(ctx, req, DefaultRetries, handle)
}

// AuthenticatedQuery performs req with a valid token, logging in first when
// needed. A 401 drops the token and starts over, at most retries times; the
// last response goes to handle whatever its status. handle defaults to
// Envelope(nil).
func (a *Auth) AuthenticatedQuery(ctx context.Context, req Request, retries int, handle ResponseHandler) error {
	if handle == nil {
		handle = Envelope(nil)
	}

	for attempt := 0; ; attempt++ {
		if !a.IsValid() {
			if _, err := a.Refresh(ctx); err != nil {
				return err
			}
		}

		resp, err := a.send(ctx, req, a.token.Raw)
		if err != nil {
			return carsonerr.Wrap(carsonerr.KindCommunication, err, "%s %s", methodOf(req), req.Path)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt < retries {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			resp.Body.Close()
			a.log(ctx).Info("request returned 401, retrying",
				"path", req.Path, "retries_left", retries-attempt)
			a.ClearToken()
			continue
		}

		err = handle(resp)
		resp.Body.Close()
		return err
	}
}

func (a *Auth) send(ctx context.Context, r Request, token string) (*http.Response, error) {
	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	target := a.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, methodOf(r), target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpx.SetHeaders(req, BaseHeaders())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", authScheme+token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func (a *Auth) log(ctx context.Context) *slog.Logger {
	return slogx.Pick(ctx, a.logger)
}

func methodOf(r Request) string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}
