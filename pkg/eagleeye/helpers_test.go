package eagleeye_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aussiebroadwan/carson/pkg/eagleeye"
	"github.com/aussiebroadwan/carson/pkg/slogx"
)

const (
	testAuthKey   = "c~secret"
	testSubdomain = "c001"
)

// fakeEEN serves the Eagle Eye API under /<subdomain>/..., so the session's
// URL template resolves to the test server.
type fakeEEN struct {
	srv     *httptest.Server
	handler http.HandlerFunc

	mu       sync.Mutex
	requests []*http.Request
}

func newFakeEEN(t *testing.T, handler http.HandlerFunc) *fakeEEN {
	t.Helper()

	f := &fakeEEN{handler: handler}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Clone(context.Background()))
		f.mu.Unlock()

		prefix := "/" + testSubdomain
		if !strings.HasPrefix(r.URL.Path, prefix+"/") {
			http.Error(w, "unknown subdomain", http.StatusNotFound)
			return
		}
		r.URL.Path = strings.TrimPrefix(r.URL.Path, prefix)
		f.handler(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// Requests returns the requests received so far.
func (f *fakeEEN) Requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

func (f *fakeEEN) template() string {
	return f.srv.URL + "/" + eagleeye.SubdomainPlaceholder
}

// sessionSource counts callback invocations.
type sessionSource struct {
	calls     int
	authKey   string
	subdomain string
	err       error
}

func (s *sessionSource) fetch(context.Context) (string, string, error) {
	s.calls++
	return s.authKey, s.subdomain, s.err
}

func validSource() *sessionSource {
	return &sessionSource{authKey: testAuthKey, subdomain: testSubdomain}
}

func newTestSession(f *fakeEEN, src *sessionSource, opts ...eagleeye.Option) *eagleeye.Session {
	opts = append([]eagleeye.Option{
		eagleeye.WithHTTPClient(f.srv.Client()),
		eagleeye.WithURLTemplate(f.template()),
		eagleeye.WithLogger(slogx.Discard()),
	}, opts...)
	return eagleeye.NewSession(src.fetch, opts...)
}
