package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sylph-dev/sylph/pkg/router"
)

// ErrModuleNotFound is returned when loading a path that has no module.
var ErrModuleNotFound = errors.New("provider: module not found")

// Catalog is an in-memory provider. Modules are registered from Go code
// under the path they would have in a server directory:
//
//	cat.Register("get/users/_id.go", router.Module{Handler: showUser})
//
// Paths are enumerated in the order fs.WalkDir would visit the same files.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string]router.Module
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{modules: make(map[string]router.Module)}
}

// Default is the catalog filled by the package-level Register functions,
// typically from init functions of handler packages.
var Default = NewCatalog()

// Register adds mod to the default catalog.
func Register(path string, mod router.Module) {
	Default.Register(path, mod)
}

// Register stores mod under path, replacing any previous module.
func (c *Catalog) Register(path string, mod router.Module) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[cleanPath(path)] = mod
}

// Handle registers a route module built from a handler function and its
// middleware.
func (c *Catalog) Handle(path string, h router.HandlerFunc, mw ...router.Ref) {
	c.Register(path, router.Module{Handler: h, Middleware: mw})
}

// Middleware registers a middleware module at middleware/<name>.go.
func (c *Catalog) Middleware(name string, mw router.Middleware) {
	c.Register("middleware/"+strings.Trim(name, "/")+".go", router.Module{Use: mw})
}

// Paths implements router.Provider.
func (c *Catalog) Paths(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	paths := make([]string, 0, len(c.modules))
	for p := range c.modules {
		paths = append(paths, p)
	}
	c.mu.RUnlock()

	sort.Slice(paths, func(i, j int) bool {
		return walkLess(paths[i], paths[j])
	})
	return paths, nil
}

// Load implements router.Provider.
func (c *Catalog) Load(ctx context.Context, path string) (router.Module, error) {
	c.mu.RLock()
	mod, ok := c.modules[cleanPath(path)]
	c.mu.RUnlock()

	if !ok {
		return router.Module{}, fmt.Errorf("%w: %s", ErrModuleNotFound, path)
	}
	return mod, nil
}

// Len returns the number of registered modules.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.modules)
}

func cleanPath(path string) string {
	return strings.TrimPrefix(strings.ReplaceAll(path, "\\", "/"), "/")
}

// walkLess orders paths the way a lexical directory walk visits them:
// segment by segment, so "get/users/_id.go" sorts before "get/users.go".
func walkLess(a, b string) bool {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}
