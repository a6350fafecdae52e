package carson_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/carson/pkg/carson"
	"github.com/aussiebroadwan/carson/pkg/eagleeye"
	"github.com/aussiebroadwan/carson/pkg/slogx"
)

const (
	testUsername  = "foo@bar.de"
	testPassword  = "hunter2"
	testAuthKey   = "c~secret"
	testSubdomain = "c001"
)

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id":  9999,
		"username": "fb12345",
		"email":    "foo@bar.de",
		"exp":      exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func envelope(data any) []byte {
	b, _ := json.Marshal(map[string]any{
		"code":   0,
		"status": "ok",
		"data":   data,
		"msg":    "",
	})
	return b
}

func failure(code int, msg string) []byte {
	b, _ := json.Marshal(map[string]any{
		"code":   code,
		"status": "error",
		"data":   nil,
		"msg":    msg,
	})
	return b
}

// fakeAPI serves Carson Living under /api and Eagle Eye under
// /een/<subdomain>. Handlers are keyed by "METHOD /path" without the prefix.
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []*http.Request
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{t: t, handlers: make(map[string]http.HandlerFunc)}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	recorded := r.Clone(context.Background())
	recorded.Body = io.NopCloser(bytes.NewReader(body))

	f.mu.Lock()
	f.requests = append(f.requests, recorded)
	f.mu.Unlock()

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/"):
		path = strings.TrimPrefix(path, "/api")
	case strings.HasPrefix(path, "/een/"+testSubdomain+"/"):
		path = "een:" + strings.TrimPrefix(path, "/een/"+testSubdomain)
	default:
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	h, ok := f.handlers[r.Method+" "+path]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

// handle registers h for pattern, e.g. "GET /me/" or "GET een:/g/device/list".
func (f *fakeAPI) handle(pattern string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[pattern] = h
}

// reply registers a handler that always answers status with body.
func (f *fakeAPI) reply(pattern string, status int, body []byte) {
	f.handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})
}

// count returns how many requests hit pattern.
func (f *fakeAPI) count(pattern string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		if r.Method+" "+r.URL.Path == f.fullPattern(pattern) {
			n++
		}
	}
	return n
}

// last returns the most recent request to pattern.
func (f *fakeAPI) last(pattern string) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.requests) - 1; i >= 0; i-- {
		r := f.requests[i]
		if r.Method+" "+r.URL.Path == f.fullPattern(pattern) {
			return r
		}
	}
	f.t.Fatalf("no request for %s", pattern)
	return nil
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeAPI) fullPattern(pattern string) string {
	method, path, _ := strings.Cut(pattern, " ")
	if rest, ok := strings.CutPrefix(path, "een:"); ok {
		return method + " /een/" + testSubdomain + rest
	}
	return method + " /api" + path
}

func (f *fakeAPI) loginWith(token string) {
	f.reply("POST "+carson.EndpointLogin, http.StatusOK, envelope(map[string]string{"token": token}))
}

func (f *fakeAPI) newAuth(t *testing.T, opts ...carson.Option) *carson.Auth {
	t.Helper()

	opts = append([]carson.Option{
		carson.WithBaseURL(f.srv.URL + "/api"),
		carson.WithHTTPClient(f.srv.Client()),
		carson.WithLogger(slogx.Discard()),
	}, opts...)
	auth, err := carson.NewAuth(testUsername, testPassword, opts...)
	require.NoError(t, err)
	return auth
}

func (f *fakeAPI) newClient(t *testing.T, opts ...carson.Option) *carson.Client {
	t.Helper()
	return carson.NewClient(f.newAuth(t, opts...),
		carson.WithEagleEyeURL(f.srv.URL+"/een/"+eagleeye.SubdomainPlaceholder))
}
