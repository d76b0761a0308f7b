package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync/atomic"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
)

// Phase is the state of one request's dispatch chain.
type Phase int

const (
	PhasePending Phase = iota
	PhaseMiddleware
	PhaseHandler
	PhaseCompleted
	PhaseShortCircuited
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseMiddleware:
		return "middleware"
	case PhaseHandler:
		return "handler"
	case PhaseCompleted:
		return "completed"
	case PhaseShortCircuited:
		return "short-circuited"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PanicError is the error passed to the error handler when a middleware or
// handler panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// DefaultErrorHandler responds with 500 and the error message unless a
// response was already started.
func DefaultErrorHandler(err error, c *Context) {
	if c.Written() {
		return
	}
	c.Header().Del("Content-Length")
	_ = c.String(http.StatusInternalServerError, err.Error())
}

// Chain runs a route's middleware and handler for each request. A Chain
// holds no per-request state and may serve requests concurrently.
type Chain struct {
	Method  string
	Pattern string

	// Middleware is resolved against Registry at dispatch time.
	Middleware []Ref
	Handler    Handler
	Registry   *Registry

	// OnError receives the failure of a request exactly once. Nil uses
	// DefaultErrorHandler.
	OnError ErrorHandler

	Logger *slog.Logger

	// AppState is exposed to handlers as Context.State.
	AppState any
}

// ServeHTTP implements http.Handler.
func (ch *Chain) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ch.Run(NewContext(w, r, ch.Method, ch.Pattern, ch.AppState))
}

// Run dispatches c through the chain and returns the terminal phase.
func (ch *Chain) Run(c *Context) Phase {
	d := &dispatch{chain: ch, ctx: c}
	d.step(0)
	return d.phase
}

type dispatch struct {
	chain  *Chain
	ctx    *Context
	phase  Phase
	failed atomic.Bool
}

func (d *dispatch) step(i int) {
	ch := d.chain
	if d.failed.Load() {
		return
	}

	if i == len(ch.Middleware) {
		d.phase = PhaseHandler
		if err := d.call(func() error { return ch.Handler.Serve(d.ctx) }); err != nil {
			d.fail(err)
			return
		}
		d.phase = PhaseCompleted
		return
	}

	ref := ch.Middleware[i]
	mw, err := ch.resolve(ref)
	if err != nil {
		d.fail(rerrors.New(rerrors.CodeMiddlewareNotFound).
			WithRoute(ch.Method, ch.Pattern).
			WithSuggestion(fmt.Sprintf("Register a middleware named %q or add middleware/%s.go", ref.Name(), ref.Name())).
			Wrap(err))
		return
	}

	d.phase = PhaseMiddleware
	var called, returned atomic.Bool
	next := func() {
		if returned.Load() || !called.CompareAndSwap(false, true) {
			return
		}
		d.step(i + 1)
	}

	err = d.call(func() error { return mw.Handle(d.ctx, next) })
	returned.Store(true)
	if err != nil {
		d.fail(err)
		return
	}
	if !called.Load() && !d.failed.Load() {
		d.phase = PhaseShortCircuited
	}
}

// call runs fn, converting a panic into a *PanicError.
func (d *dispatch) call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func (d *dispatch) fail(err error) {
	if !d.failed.CompareAndSwap(false, true) {
		return
	}
	d.phase = PhaseFailed
	ch := d.chain

	code := rerrors.CodeOf(err)
	if code == "" {
		code = rerrors.CodeHandlerFailed
		if _, ok := err.(*PanicError); ok {
			code = rerrors.CodeHandlerPanic
		}
	}
	ch.logger().Error("request failed",
		"code", code,
		"method", ch.Method,
		"route", ch.Pattern,
		"request_id", d.ctx.ID(),
		"error", err)

	onError := ch.OnError
	if onError == nil {
		onError = DefaultErrorHandler
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				ch.logger().Error("error handler panicked",
					"method", ch.Method,
					"route", ch.Pattern,
					"panic", r)
			}
		}()
		onError(err, d.ctx)
	}()
}

func (ch *Chain) resolve(ref Ref) (Middleware, error) {
	if ch.Registry == nil {
		if ref.inline != nil {
			return ref.inline, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrMiddlewareNotFound, ref.name)
	}
	return ch.Registry.Resolve(ref)
}

func (ch *Chain) logger() *slog.Logger {
	if ch.Logger == nil {
		return slog.Default()
	}
	return ch.Logger
}
