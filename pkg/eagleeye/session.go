package eagleeye

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
	"github.com/aussiebroadwan/carson/pkg/httpx"
	"github.com/aussiebroadwan/carson/pkg/slogx"
)

// SessionFunc returns a fresh auth key and brand subdomain.
type SessionFunc func(ctx context.Context) (authKey, subdomain string, err error)

// Session is an authenticated Eagle Eye session. Both the auth key and the
// subdomain are either set or empty.
type Session struct {
	fetch       SessionFunc
	client      httpx.Doer
	urlTemplate string
	headers     http.Header
	logger      *slog.Logger
	now         func() time.Time

	authKey   string
	subdomain string
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient sets the transport (default http.DefaultClient).
func WithHTTPClient(c httpx.Doer) Option { return func(s *Session) { s.client = c } }

// WithURLTemplate overrides DefaultURLTemplate. The template must contain
// SubdomainPlaceholder.
func WithURLTemplate(tmpl string) Option {
	return func(s *Session) { s.urlTemplate = strings.TrimSuffix(tmpl, "/") }
}

// WithHeaders sets headers sent with every request.
func WithHeaders(h http.Header) Option { return func(s *Session) { s.headers = h.Clone() } }

// WithLogger sets the logger (default: the context logger).
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// WithClock sets the time source used for live video timestamps.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// NewSession returns an empty session backed by fetch. Nothing is requested
// until the first query.
func NewSession(fetch SessionFunc, opts ...Option) *Session {
	s := &Session{
		fetch:       fetch,
		client:      http.DefaultClient,
		urlTemplate: DefaultURLTemplate,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthKey returns the current auth key, or "".
func (s *Session) AuthKey() string { return s.authKey }

// Subdomain returns the current brand subdomain, or "".
func (s *Session) Subdomain() string { return s.subdomain }

// HasSession reports whether an auth key and subdomain are set.
func (s *Session) HasSession() bool { return s.authKey != "" && s.subdomain != "" }

// ClearSession drops the auth key and subdomain.
func (s *Session) ClearSession() {
	s.authKey = ""
	s.subdomain = ""
}

// RefreshSession replaces the session with one from the SessionFunc. An empty
// key or subdomain is not retried: it means the parent link is broken.
func (s *Session) RefreshSession(ctx context.Context) error {
	s.log(ctx).Debug("refreshing eagle eye session")

	if s.fetch == nil {
		s.ClearSession()
		return carsonerr.Carson("eagle eye session has no session callback")
	}

	authKey, subdomain, err := s.fetch(ctx)
	if err != nil {
		s.ClearSession()
		return err
	}
	if authKey == "" || subdomain == "" {
		s.ClearSession()
		return carsonerr.Carson("eagle eye authentication callback returned empty values")
	}

	s.authKey = authKey
	s.subdomain = subdomain
	return nil
}

// URL resolves path against the API root of the current subdomain.
func (s *Session) URL(path string) string {
	return strings.ReplaceAll(s.urlTemplate, SubdomainPlaceholder, s.subdomain) + path
}

// Request describes an Eagle Eye call. Path is relative to the API root.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Query is AuthenticatedQuery with DefaultRetries.
func (s *Session) Query(ctx context.Context, req Request, handle ResponseHandler) error {
	return s.AuthenticatedQuery(ctx, req, DefaultRetries, handle)
}

// AuthenticatedQuery performs req with the session credentials, establishing
// a session first when there is none. A 401 clears the session and retries,
// at most retries times; at most retries+1 requests go out. Non-2xx
// responses fail with carsonerr.ErrAPI. handle consumes successful responses
// and defaults to discarding the body.
func (s *Session) AuthenticatedQuery(ctx context.Context, req Request, retries int, handle ResponseHandler) error {
	if handle == nil {
		handle = DecodeJSON(nil)
	}

	for attempt := 0; ; attempt++ {
		if !s.HasSession() {
			if err := s.RefreshSession(ctx); err != nil {
				return err
			}
		}

		resp, err := s.send(ctx, req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt < retries {
			drain(resp)
			s.log(ctx).Info("eagle eye request returned 401, retrying",
				"path", req.Path, "retries_left", retries-attempt)
			s.ClearSession()
			continue
		}

		return s.finish(resp, handle)
	}
}

// CheckAuth probes the session without failing. With refresh false and no
// session it answers false without any request.
func (s *Session) CheckAuth(ctx context.Context, refresh bool) bool {
	if !refresh && !s.HasSession() {
		return false
	}

	retries := 0
	if refresh {
		retries = 1
	}

	err := s.AuthenticatedQuery(ctx, Request{Path: EndpointIsAuth}, retries, nil)
	if err != nil {
		s.log(ctx).Debug("eagle eye auth check failed", "error", err)
		return false
	}
	return true
}

func (s *Session) send(ctx context.Context, r Request) (*http.Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	target := s.URL(r.Path)
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpx.SetHeaders(req, s.headers)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: "auth_key", Value: s.authKey})

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, carsonerr.Wrap(carsonerr.KindCommunication, err, "%s %s", method, r.Path)
	}
	return resp, nil
}

func (s *Session) finish(resp *http.Response, handle ResponseHandler) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &carsonerr.Error{
			Kind:       carsonerr.KindAPI,
			Message:    describe(resp),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	return handle(resp)
}

func (s *Session) log(ctx context.Context) *slog.Logger {
	return slogx.Pick(ctx, s.logger)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
