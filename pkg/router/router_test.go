package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeProvider serves modules from a map, enumerating paths in the given
// order.
type fakeProvider struct {
	mu      sync.Mutex
	paths   []string
	modules map[string]Module
	errs    map[string]error
	loads   map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		modules: make(map[string]Module),
		errs:    make(map[string]error),
		loads:   make(map[string]int),
	}
}

func (p *fakeProvider) add(path string, mod Module) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.modules[path]; !ok {
		p.paths = append(p.paths, path)
	}
	p.modules[path] = mod
}

func (p *fakeProvider) fail(path string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, path)
	p.errs[path] = err
}

func (p *fakeProvider) Paths(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.paths...), nil
}

func (p *fakeProvider) Load(ctx context.Context, path string) (Module, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads[path]++
	if err, ok := p.errs[path]; ok {
		return Module{}, err
	}
	mod, ok := p.modules[path]
	if !ok {
		return Module{}, errors.New("no such module")
	}
	return mod, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// text returns a handler that writes body with 200.
func text(body string) Handler {
	return HandlerFunc(func(c *Context) error {
		return c.String(http.StatusOK, body)
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func httptestPost(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	return serve(h, newRequest(http.MethodPost, path))
}
