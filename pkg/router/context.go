package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Context carries one request through its middleware chain and handler.
// A fresh Context is built for every request.
type Context struct {
	// Writer is the response writer. It records the status and byte count so
	// the error handler can tell whether a response was already started.
	Writer middleware.WrapResponseWriter

	// Request is the incoming request.
	Request *http.Request

	// State is the application state shared by every handler. The engine
	// does not synchronize access to it.
	State any

	id      string
	method  string
	pattern string
	params  map[string]string
	values  map[any]any
}

// NewContext wraps a request for dispatch on the route (method, pattern).
func NewContext(w http.ResponseWriter, r *http.Request, method, pattern string, state any) *Context {
	ww, ok := w.(middleware.WrapResponseWriter)
	if !ok {
		ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	}
	return &Context{
		Writer:  ww,
		Request: r,
		State:   state,
		id:      uuid.NewString(),
		method:  method,
		pattern: pattern,
		params:  paramsFromRequest(r),
	}
}

// ID returns the request ID assigned when the context was built.
func (c *Context) ID() string { return c.id }

// Method returns the method of the matched route.
func (c *Context) Method() string { return c.method }

// Pattern returns the URL pattern of the matched route.
func (c *Context) Pattern() string { return c.pattern }

// StdContext returns the request's context.Context.
func (c *Context) StdContext() context.Context {
	return c.Request.Context()
}

// Param returns a path parameter by name.
func (c *Context) Param(name string) string {
	if v, ok := c.params[name]; ok {
		return v
	}
	return chi.URLParam(c.Request, name)
}

// Params returns the parameters extracted by the binder. Parameters bound by
// chi are only available through Param.
func (c *Context) Params() map[string]string {
	return c.params
}

// Set stores a request-scoped value for later middleware or the handler.
func (c *Context) Set(key, value any) {
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = value
}

// Value returns a value stored with Set.
func (c *Context) Value(key any) any {
	return c.values[key]
}

// Header returns the response headers.
func (c *Context) Header() http.Header {
	return c.Writer.Header()
}

// Status writes the response status code.
func (c *Context) Status(code int) {
	c.Writer.WriteHeader(code)
}

// Written reports whether the response has been started.
func (c *Context) Written() bool {
	return c.Writer.Status() != 0 || c.Writer.BytesWritten() > 0
}

// String writes a plain-text response.
func (c *Context) String(code int, s string) error {
	if c.Header().Get("Content-Type") == "" {
		c.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	c.Writer.WriteHeader(code)
	_, err := c.Writer.Write([]byte(s))
	return err
}

// JSON writes v as a JSON response.
func (c *Context) JSON(code int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.Header().Set("Content-Type", "application/json")
	c.Writer.WriteHeader(code)
	_, err = c.Writer.Write(data)
	return err
}

type paramsKey struct{}

// withParams attaches parameters extracted by the Mux to the request.
func withParams(r *http.Request, params map[string]string) *http.Request {
	if len(params) == 0 {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), paramsKey{}, params))
}

func paramsFromRequest(r *http.Request) map[string]string {
	params, _ := r.Context().Value(paramsKey{}).(map[string]string)
	return params
}
