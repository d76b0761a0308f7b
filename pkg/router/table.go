package router

import (
	"log/slog"
	"net/http"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
	"github.com/sylph-dev/sylph/pkg/routepath"
)

// Route is one entry of a route table.
type Route struct {
	routepath.Descriptor

	// Handler serves the route.
	Handler Handler

	// Middleware is the route's own middleware, in execution order.
	Middleware []Ref
}

// Table holds at most one route per (method, pattern) key. Adding an
// existing key replaces the route in place and logs a conflict.
type Table struct {
	routes  []*Route
	index   map[routepath.Key]int
	logger  *slog.Logger
	metrics *Metrics
}

// NewTable creates an empty table. A nil logger uses slog.Default.
func NewTable(logger *slog.Logger, metrics *Metrics) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{
		index:   make(map[routepath.Key]int),
		logger:  logger,
		metrics: metrics,
	}
}

// Add records a route for d. It reports whether an existing route with the
// same key was replaced.
func (t *Table) Add(d routepath.Descriptor, h Handler, refs []Ref) bool {
	route := &Route{Descriptor: d, Handler: h, Middleware: refs}
	key := d.Key()

	if i, ok := t.index[key]; ok {
		prev := t.routes[i]
		t.routes[i] = route
		t.conflict(route, prev)
		return true
	}

	t.index[key] = len(t.routes)
	t.routes = append(t.routes, route)
	return false
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Routes returns the routes in bind order: every static route in the order
// it was added, then every dynamic route in the order it was added.
func (t *Table) Routes() []*Route {
	out := make([]*Route, 0, len(t.routes))
	for _, r := range t.routes {
		if !r.Dynamic {
			out = append(out, r)
		}
	}
	for _, r := range t.routes {
		if r.Dynamic {
			out = append(out, r)
		}
	}
	return out
}

// Keys returns the route keys in bind order.
func (t *Table) Keys() []routepath.Key {
	routes := t.Routes()
	keys := make([]routepath.Key, len(routes))
	for i, r := range routes {
		keys[i] = r.Key()
	}
	return keys
}

// Lookup returns the route bound to key.
func (t *Table) Lookup(key routepath.Key) (*Route, bool) {
	i, ok := t.index[key]
	if !ok {
		return nil, false
	}
	return t.routes[i], true
}

// Commit binds every route on b in bind order, using listen to build each
// route's http.Handler. It returns the routes in the order they were bound.
func (t *Table) Commit(b Binder, listen func(*Route) http.Handler) []*Route {
	routes := t.Routes()
	for _, r := range routes {
		b.Bind(r.Method, r.Pattern, listen(r))
	}
	return routes
}

// conflict logs route replacing prev under the same key.
func (t *Table) conflict(route, prev *Route) {
	code, msg, kind := rerrors.CodeDuplicateStatic, "duplicate static route", "static"
	if route.Dynamic {
		code, msg, kind = rerrors.CodeDuplicateDynamic, "duplicate dynamic route", "dynamic"
	}
	t.logger.Warn(msg,
		"code", code,
		"method", route.Method,
		"route", route.Pattern,
		"file", route.RawPath,
		"replaced", prev.RawPath)
	t.metrics.conflict(kind)
}

// merge folds a finished pass into t. A route reloaded from the file that
// bound it replaces it quietly; a route from another file is a conflict.
func (t *Table) merge(other *Table) {
	for _, r := range other.routes {
		key := r.Key()
		if i, ok := t.index[key]; ok {
			prev := t.routes[i]
			t.routes[i] = r
			if prev.RawPath != r.RawPath {
				t.conflict(r, prev)
			}
			continue
		}
		t.index[key] = len(t.routes)
		t.routes = append(t.routes, r)
	}
}
