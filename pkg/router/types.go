package router

import (
	"context"
	"fmt"
	"net/http"
)

// Handler handles a routed request.
type Handler interface {
	Serve(c *Context) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(c *Context) error

// Serve implements Handler.
func (f HandlerFunc) Serve(c *Context) error {
	return f(c)
}

// Middleware runs before a route handler.
type Middleware interface {
	// Handle processes the request and calls next to let the chain advance.
	// Returning without calling next stops the chain; the middleware is then
	// responsible for the response. Returning an error fails the request.
	Handle(c *Context, next func()) error
}

// MiddlewareFunc is a function adapter for Middleware.
type MiddlewareFunc func(c *Context, next func()) error

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(c *Context, next func()) error {
	return f(c, next)
}

// Ref references a middleware either inline or by registry name.
type Ref struct {
	name   string
	inline Middleware
}

// Inline references a middleware value directly.
func Inline(mw Middleware) Ref {
	return Ref{inline: mw}
}

// InlineFunc references a middleware function directly.
func InlineFunc(fn func(c *Context, next func()) error) Ref {
	return Ref{inline: MiddlewareFunc(fn)}
}

// Named references a middleware registered under name.
func Named(name string) Ref {
	return Ref{name: name}
}

// IsNamed reports whether the reference is resolved through the registry.
func (r Ref) IsNamed() bool {
	return r.inline == nil && r.name != ""
}

// Name returns the registry name, or "" for inline references.
func (r Ref) Name() string {
	return r.name
}

// String returns a label for diagnostics.
func (r Ref) String() string {
	if r.IsNamed() {
		return r.name
	}
	if r.inline != nil {
		return fmt.Sprintf("inline(%T)", r.inline)
	}
	return "<empty>"
}

// Module is what a provider loads for one module path.
type Module struct {
	// Handler serves requests for route modules.
	Handler Handler

	// Middleware lists the route's middleware, in execution order.
	Middleware []Ref

	// Use is the middleware exported by modules under middleware/.
	Use Middleware
}

// ErrorHandler receives every failed request exactly once.
type ErrorHandler func(err error, c *Context)

// Binder attaches a handler to a method and URL pattern on a server.
// Binding an existing (method, pattern) pair replaces the previous handler.
type Binder interface {
	Bind(method, pattern string, h http.Handler)
}

// Rebinder is implemented by binders that can atomically replace their whole
// route set. Incremental passes use it to keep static routes ahead of
// dynamic ones.
type Rebinder interface {
	Binder
	Rebind(fn func(Binder))
}

// Provider enumerates and loads handler modules.
type Provider interface {
	// Paths returns module paths relative to the discovery root, in scan
	// order.
	Paths(ctx context.Context) ([]string, error)

	// Load returns the exports of the module at path.
	Load(ctx context.Context, path string) (Module, error)
}

// Watcher is implemented by providers that can report module changes.
// Watch blocks until ctx is done or the watch fails.
type Watcher interface {
	Watch(ctx context.Context, emit func(Event)) error
}

// Op is the kind of a module change.
type Op int

const (
	OpAdd Op = iota
	OpChange
	OpRemove
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpChange:
		return "change"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event reports one module change.
type Event struct {
	Op   Op
	Path string
}
