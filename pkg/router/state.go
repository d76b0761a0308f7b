package router

import (
	"log/slog"
	"sync"

	"github.com/sylph-dev/sylph/pkg/routepath"
)

// State is the routing state of one engine: the middleware registry and
// every route bound so far. Discovery passes over a State run one at a time.
type State struct {
	mu       sync.Mutex
	registry *Registry
	table    *Table
}

// NewState creates an empty routing state.
func NewState(logger *slog.Logger, metrics *Metrics) *State {
	reg := NewRegistry(logger)
	reg.metrics = metrics
	return &State{
		registry: reg,
		table:    NewTable(logger, metrics),
	}
}

// Registry returns the middleware registry.
func (s *State) Registry() *Registry {
	return s.registry
}

// Keys returns the keys of every bound route, in bind order.
func (s *State) Keys() []routepath.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Keys()
}

// Lookup returns the bound route for key.
func (s *State) Lookup(key routepath.Key) (*Route, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Lookup(key)
}
