package router

import (
	"context"
	"fmt"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
	"github.com/sylph-dev/sylph/pkg/routepath"
)

// Loader loads module exports through a Provider and checks them against
// the descriptor's kind.
type Loader struct {
	Provider Provider
}

// Load returns the module for d. Provider errors and panics become E101;
// a route without a Handler is E102 and a middleware module without Use is
// E107. The returned error is always a *errors.RouteError.
func (l Loader) Load(ctx context.Context, d routepath.Descriptor) (mod Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			mod = Module{}
			err = loadError(d, rerrors.CodeLoadFailed).Wrap(fmt.Errorf("panic: %v", r))
		}
	}()

	mod, err = l.Provider.Load(ctx, d.RawPath)
	if err != nil {
		return Module{}, loadError(d, rerrors.CodeLoadFailed).Wrap(err)
	}

	if d.IsMiddleware() {
		if mod.Use == nil {
			return Module{}, loadError(d, rerrors.CodeNoMiddlewareFunc).
				WithSuggestion("Set Module.Use to the middleware this module provides")
		}
		return mod, nil
	}

	if mod.Handler == nil {
		return Module{}, loadError(d, rerrors.CodeNoHandler).
			WithSuggestion("Set Module.Handler to the route's handler")
	}
	return mod, nil
}

func loadError(d routepath.Descriptor, code string) *rerrors.RouteError {
	e := rerrors.New(code).WithFile(d.RawPath)
	if !d.IsMiddleware() {
		e.WithRoute(d.Method, d.Pattern)
	}
	return e
}
