package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
	"github.com/sylph-dev/sylph/pkg/routepath"
)

var (
	// ErrNoProvider is returned when an engine has no module provider.
	ErrNoProvider = errors.New("router: no module provider")

	// ErrNoBinder is returned when an engine has no binder.
	ErrNoBinder = errors.New("router: no binder")

	// ErrWatchUnsupported is returned by Watch when the provider cannot
	// report changes.
	ErrWatchUnsupported = errors.New("router: provider does not support watching")

	// ErrWatchStopped is returned by Watch when the provider stops reporting
	// changes before ctx is done.
	ErrWatchStopped = errors.New("router: provider stopped watching")
)

// Options configures an Engine.
type Options struct {
	Provider Provider
	Binder   Binder
	Resolver routepath.Resolver

	// ErrorHandler receives failed requests. Nil uses DefaultErrorHandler.
	ErrorHandler ErrorHandler

	Logger *slog.Logger

	// AppState is shared by every request as Context.State.
	AppState any

	// Metrics records discovery counters. Nil disables them.
	Metrics *Metrics

	// Concurrency bounds concurrent module loads per pass.
	Concurrency int

	// OnPass is called after every completed pass.
	OnPass func(*Report)
}

// Engine discovers modules from a provider and keeps a binder in sync with
// them.
type Engine struct {
	opts   Options
	state  *State
	logger *slog.Logger

	mu     sync.RWMutex
	global []Ref
}

// NewEngine creates an engine with an empty routing state.
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "router")
	return &Engine{
		opts:   opts,
		state:  NewState(logger, opts.Metrics),
		logger: logger,
	}
}

// Use prepends refs to the chain of every route. Routes already bound are
// rebound when the binder supports it; otherwise they keep their chains and
// a warning is logged.
func (e *Engine) Use(refs ...Ref) {
	e.mu.Lock()
	e.global = append(e.global, refs...)
	e.mu.Unlock()

	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	if e.state.table.Len() == 0 || e.opts.Binder == nil {
		return
	}
	if rb, ok := e.opts.Binder.(Rebinder); ok {
		rb.Rebind(func(b Binder) {
			e.state.table.Commit(b, e.listen)
		})
		return
	}
	e.logger.Warn("global middleware added after routes were bound, existing routes keep their chains",
		"routes", e.state.table.Len())
}

// Registry returns the engine's middleware registry.
func (e *Engine) Registry() *Registry {
	return e.state.Registry()
}

// Routes returns the keys of every bound route, in bind order.
func (e *Engine) Routes() []routepath.Key {
	return e.state.Keys()
}

// State returns the engine's routing state.
func (e *Engine) State() *State {
	return e.state
}

// Scan runs a full discovery pass over every provider path.
func (e *Engine) Scan(ctx context.Context) (*Report, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	paths, err := e.opts.Provider.Paths(ctx)
	if err != nil {
		return nil, rerrors.New(rerrors.CodeLoadFailed).
			WithDetail("The module provider could not list modules.").
			Wrap(err)
	}
	return e.pass(ctx, paths)
}

// Apply runs one incremental pass for a batch of module events. Removed
// modules stay bound.
func (e *Engine) Apply(ctx context.Context, events []Event) (*Report, error) {
	if err := e.check(); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(events))
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		if ev.Op == OpRemove {
			e.logger.Info("module removed, route stays bound until restart", "file", ev.Path)
			continue
		}
		if seen[ev.Path] {
			continue
		}
		seen[ev.Path] = true
		paths = append(paths, ev.Path)
	}
	if len(paths) == 0 {
		return &Report{}, nil
	}
	return e.pass(ctx, paths)
}

// Watch applies provider change events until ctx is done. Passes never
// overlap; events arriving during a pass are coalesced into the next one.
func (e *Engine) Watch(ctx context.Context) error {
	if err := e.check(); err != nil {
		return err
	}
	w, ok := e.opts.Provider.(Watcher)
	if !ok {
		return ErrWatchUnsupported
	}

	q := newEventQueue()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := w.Watch(gctx, q.push)
		switch {
		case gctx.Err() != nil:
			return nil
		case err == nil:
			return ErrWatchStopped
		default:
			return rerrors.New(rerrors.CodeWatchFailed).Wrap(err)
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-q.ready:
			}
			batch := q.drain()
			if len(batch) == 0 {
				continue
			}
			e.logger.Debug("applying module changes", "events", len(batch))
			if _, err := e.Apply(gctx, batch); err != nil {
				if gctx.Err() != nil {
					return nil
				}
				e.logger.Error("live pass failed", "error", err)
			}
		}
	})

	return g.Wait()
}

func (e *Engine) check() error {
	if e.opts.Provider == nil {
		return ErrNoProvider
	}
	if e.opts.Binder == nil {
		return ErrNoBinder
	}
	return nil
}

func (e *Engine) pass(ctx context.Context, paths []string) (*Report, error) {
	s := &Session{
		State:       e.state,
		Loader:      Loader{Provider: e.opts.Provider},
		Resolver:    e.opts.Resolver,
		Binder:      e.opts.Binder,
		Listen:      e.listen,
		Concurrency: e.opts.Concurrency,
		Logger:      e.logger,
		Metrics:     e.opts.Metrics,
	}
	report, err := s.Run(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("discovery pass: %w", err)
	}
	if e.opts.OnPass != nil {
		e.opts.OnPass(report)
	}
	return report, nil
}

// listen builds the dispatch chain bound for r.
func (e *Engine) listen(r *Route) http.Handler {
	e.mu.RLock()
	refs := make([]Ref, 0, len(e.global)+len(r.Middleware))
	refs = append(refs, e.global...)
	e.mu.RUnlock()
	refs = append(refs, r.Middleware...)

	return &Chain{
		Method:     r.Method,
		Pattern:    r.Pattern,
		Middleware: refs,
		Handler:    r.Handler,
		Registry:   e.state.Registry(),
		OnError:    e.opts.ErrorHandler,
		Logger:     e.logger,
		AppState:   e.opts.AppState,
	}
}
