package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
	"github.com/sylph-dev/sylph/pkg/routepath"
)

// DefaultConcurrency bounds concurrent module loads in one pass.
const DefaultConcurrency = 8

// Failure is a module that could not be bound.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes one discovery pass.
type Report struct {
	// Bound lists the routes bound by the pass, in bind order.
	Bound []routepath.Key

	// Middleware lists the middleware modules registered by the pass.
	Middleware []string

	// Failures lists modules that failed to load or resolve.
	Failures []Failure

	// Skipped lists paths that do not describe a module.
	Skipped []string

	Duration time.Duration
}

// OK reports whether the pass had no failures.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Session runs one discovery pass against a State. A Session is used once.
type Session struct {
	State    *State
	Loader   Loader
	Resolver routepath.Resolver
	Binder   Binder

	// Listen builds the http.Handler bound for a route.
	Listen func(*Route) http.Handler

	// Concurrency bounds concurrent loads. Zero uses DefaultConcurrency.
	Concurrency int

	Logger  *slog.Logger
	Metrics *Metrics
}

type loaded struct {
	desc routepath.Descriptor
	mod  Module
	err  error
}

// Run resolves paths, loads their modules concurrently, registers
// middleware modules, and commits the routes. Commit order depends only on
// the order of paths, never on load timing. Module failures are reported,
// not returned; Run fails only when ctx is done.
func (s *Session) Run(ctx context.Context, paths []string) (*Report, error) {
	start := time.Now()
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	report := &Report{}

	items := make([]loaded, 0, len(paths))
	for _, p := range paths {
		d, err := s.Resolver.Resolve(p)
		if err != nil {
			if errors.Is(err, routepath.ErrNotRoutable) {
				logger.Debug("path skipped", "file", p, "code", rerrors.CodeNotRoutable)
			}
			report.Skipped = append(report.Skipped, p)
			continue
		}
		items = append(items, loaded{desc: d})
	}

	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range items {
		i := i
		g.Go(func() error {
			items[i].mod, items[i].err = s.Loader.Load(gctx, items[i].desc)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.State.mu.Lock()
	defer s.State.mu.Unlock()

	table := NewTable(logger, s.Metrics)
	for _, it := range items {
		if it.err != nil {
			s.recordFailure(logger, report, it)
			continue
		}
		if it.desc.IsMiddleware() {
			s.State.registry.Register(it.desc.Name, it.mod.Use)
			report.Middleware = append(report.Middleware, it.desc.Name)
			logger.Info("middleware registered", "middleware", it.desc.Name, "file", it.desc.RawPath)
			continue
		}
		table.Add(it.desc, it.mod.Handler, it.mod.Middleware)
	}

	prior := s.State.table.Len() > 0
	s.State.table.merge(table)

	routes := table.Routes()
	if rb, ok := s.Binder.(Rebinder); ok && prior {
		rb.Rebind(func(b Binder) {
			s.State.table.Commit(b, s.Listen)
		})
	} else {
		table.Commit(s.Binder, s.Listen)
	}

	for _, r := range routes {
		report.Bound = append(report.Bound, r.Key())
		s.Metrics.bound(r.Dynamic)
		logger.Info("route bound", "method", r.Method, "route", r.Pattern)
	}

	report.Duration = time.Since(start)
	s.Metrics.pass(start)
	return report, nil
}

func (s *Session) recordFailure(logger *slog.Logger, report *Report, it loaded) {
	code := rerrors.CodeOf(it.err)
	s.Metrics.failure(code)
	report.Failures = append(report.Failures, Failure{Path: it.desc.RawPath, Err: it.err})

	if it.desc.IsMiddleware() {
		logger.Error("middleware failed",
			"middleware", it.desc.Name,
			"file", it.desc.RawPath,
			"code", code,
			"error", it.err)
		return
	}
	logger.Error("route failed",
		"method", it.desc.Method,
		"route", it.desc.Pattern,
		"file", it.desc.RawPath,
		"code", code,
		"error", it.err)
}
