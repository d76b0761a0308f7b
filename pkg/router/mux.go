package router

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/sylph-dev/sylph/pkg/routepath"
)

// Mux is a Binder that matches requests against routes in the order they
// were bound; the first match wins. Rebinding a (method, pattern) pair
// replaces its handler in place. Mux is safe for binding while serving.
type Mux struct {
	mu     sync.Mutex
	routes atomic.Pointer[routeList]

	// NotFound handles requests no route matches. Nil uses http.NotFound.
	NotFound http.Handler
}

type muxRoute struct {
	method  string
	pattern routepath.Pattern
	handler http.Handler
}

// routeList is an ordered route set; it is also the Binder handed to
// Rebind callbacks.
type routeList []muxRoute

func (l *routeList) Bind(method, pattern string, h http.Handler) {
	for i, r := range *l {
		if r.method == method && r.pattern.String() == pattern {
			(*l)[i].handler = h
			return
		}
	}
	*l = append(*l, muxRoute{method: method, pattern: routepath.Compile(pattern), handler: h})
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	m := &Mux{}
	m.routes.Store(&routeList{})
	return m
}

// Bind implements Binder.
func (m *Mux) Bind(method, pattern string, h http.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := *m.routes.Load()
	next := make(routeList, len(cur), len(cur)+1)
	copy(next, cur)
	next.Bind(method, pattern, h)
	m.routes.Store(&next)
}

// Rebind implements Rebinder. The routes bound by fn replace the whole
// route set at once.
func (m *Mux) Rebind(fn func(Binder)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := routeList{}
	fn(&next)
	m.routes.Store(&next)
}

// Routes returns the bound route keys in match order.
func (m *Mux) Routes() []routepath.Key {
	cur := *m.routes.Load()
	keys := make([]routepath.Key, len(cur))
	for i, r := range cur {
		keys[i] = routepath.Key{Method: r.method, Pattern: r.pattern.String()}
	}
	return keys
}

// ServeHTTP implements http.Handler.
func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, err := routepath.CanonicalizePath(r.URL.EscapedPath())
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	for _, route := range *m.routes.Load() {
		if route.method != r.Method {
			continue
		}
		params, ok := route.pattern.Match(path)
		if !ok {
			continue
		}
		route.handler.ServeHTTP(w, withParams(r, params))
		return
	}

	if m.NotFound != nil {
		m.NotFound.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}
