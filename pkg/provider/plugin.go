package provider

import (
	"context"
	"fmt"
	"path/filepath"
	"plugin"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
	"github.com/sylph-dev/sylph/pkg/router"
)

// Plugin symbols looked up in a module built with -buildmode=plugin.
const (
	SymbolHandler    = "Handler"
	SymbolMiddleware = "Middleware"
	SymbolUse        = "Use"
)

// PluginLoader loads modules from Go plugins below Root. A plugin exports
// any of:
//
//	func Handler(c *router.Context) error
//	var Middleware = []router.Ref{router.Named("auth")}
//	func Use(c *router.Context, next func()) error
//
// The Go runtime opens a plugin path at most once per process, so a
// rebuilt plugin must be written to a new path to be picked up live.
type PluginLoader struct {
	Root string
}

// Load implements LoadFunc.
func (l PluginLoader) Load(ctx context.Context, path string) (router.Module, error) {
	full := filepath.Join(l.Root, filepath.FromSlash(path))
	p, err := plugin.Open(full)
	if err != nil {
		return router.Module{}, rerrors.New(rerrors.CodePluginOpen).WithFile(path).Wrap(err)
	}
	return moduleFromSymbols(p.Lookup)
}

// moduleFromSymbols builds a Module from whichever symbols lookup finds.
func moduleFromSymbols(lookup func(string) (plugin.Symbol, error)) (router.Module, error) {
	var mod router.Module

	if sym, err := lookup(SymbolHandler); err == nil {
		h, ok := asHandler(sym)
		if !ok {
			return mod, fmt.Errorf("symbol %s has unsupported type %T", SymbolHandler, sym)
		}
		mod.Handler = h
	}

	if sym, err := lookup(SymbolMiddleware); err == nil {
		switch v := sym.(type) {
		case *[]router.Ref:
			mod.Middleware = *v
		case []router.Ref:
			mod.Middleware = v
		default:
			return mod, fmt.Errorf("symbol %s has unsupported type %T", SymbolMiddleware, sym)
		}
	}

	if sym, err := lookup(SymbolUse); err == nil {
		mw, ok := asMiddleware(sym)
		if !ok {
			return mod, fmt.Errorf("symbol %s has unsupported type %T", SymbolUse, sym)
		}
		mod.Use = mw
	}

	return mod, nil
}

func asHandler(sym any) (router.Handler, bool) {
	switch v := sym.(type) {
	case func(*router.Context) error:
		return router.HandlerFunc(v), true
	case *router.HandlerFunc:
		return *v, true
	case *router.Handler:
		return *v, *v != nil
	case router.Handler:
		return v, true
	}
	return nil, false
}

func asMiddleware(sym any) (router.Middleware, bool) {
	switch v := sym.(type) {
	case func(*router.Context, func()) error:
		return router.MiddlewareFunc(v), true
	case *router.MiddlewareFunc:
		return *v, true
	case *router.Middleware:
		return *v, *v != nil
	case router.Middleware:
		return v, true
	}
	return nil, false
}
