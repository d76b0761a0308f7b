package router

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/sylph-dev/sylph/pkg/routepath"
)

// ChiBinder binds routes onto a chi router. Patterns are rewritten from
// ":id" to chi's "{id}" form. Rebind builds a fresh chi.Mux and swaps it in
// atomically.
type ChiBinder struct {
	mu    sync.Mutex
	mux   atomic.Pointer[chi.Mux]
	setup func(chi.Router)
}

// NewChiBinder creates a binder. setup, if non-nil, runs on every new
// chi.Mux before routes are bound, so middleware and fixed routes survive
// a Rebind.
func NewChiBinder(setup func(chi.Router)) *ChiBinder {
	b := &ChiBinder{setup: setup}
	b.mux.Store(b.newMux())
	return b
}

func (b *ChiBinder) newMux() *chi.Mux {
	m := chi.NewRouter()
	if b.setup != nil {
		b.setup(m)
	}
	return m
}

// Bind implements Binder.
func (b *ChiBinder) Bind(method, pattern string, h http.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mux.Load().Method(method, routepath.ToBraces(pattern), h)
}

// Rebind implements Rebinder.
func (b *ChiBinder) Rebind(fn func(Binder)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := b.newMux()
	fn(chiRoutes{m})
	b.mux.Store(m)
}

// Router returns the chi router currently serving requests.
func (b *ChiBinder) Router() chi.Router {
	return b.mux.Load()
}

// ServeHTTP implements http.Handler.
func (b *ChiBinder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.Load().ServeHTTP(w, r)
}

type chiRoutes struct{ r chi.Router }

func (c chiRoutes) Bind(method, pattern string, h http.Handler) {
	c.r.Method(method, routepath.ToBraces(pattern), h)
}
