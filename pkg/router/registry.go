package router

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
)

// ErrMiddlewareNotFound is returned when a named reference has no registry
// entry at dispatch time.
var ErrMiddlewareNotFound = errors.New("router: middleware not found")

// ErrEmptyRef is returned when resolving a zero Ref.
var ErrEmptyRef = errors.New("router: empty middleware reference")

// Registry maps names to reusable middleware. Names are unique; registering
// an existing name replaces it. Entries are never removed.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Middleware
	logger  *slog.Logger
	metrics *Metrics
}

// NewRegistry creates an empty registry. A nil logger uses slog.Default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]Middleware),
		logger:  logger,
	}
}

// Register stores mw under name, replacing any previous entry. It reports
// whether a previous entry was replaced; a replacement is always logged.
func (r *Registry) Register(name string, mw Middleware) bool {
	r.mu.Lock()
	_, existed := r.entries[name]
	r.entries[name] = mw
	r.mu.Unlock()

	if existed {
		err := rerrors.New(rerrors.CodeMiddlewareReplaced)
		r.logger.Warn("middleware conflict",
			"middleware", name,
			"code", err.Code,
			"error", err.Message)
		r.metrics.conflict("middleware")
	}
	return existed
}

// Resolve returns the middleware a reference points to. Inline references
// resolve to themselves; named references are looked up now, not at
// registration time.
func (r *Registry) Resolve(ref Ref) (Middleware, error) {
	if ref.inline != nil {
		return ref.inline, nil
	}
	if ref.name == "" {
		return nil, ErrEmptyRef
	}

	r.mu.RLock()
	mw, ok := r.entries[ref.name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMiddlewareNotFound, ref.name)
	}
	return mw, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered middleware.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
