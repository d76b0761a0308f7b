package sylph

import (
	"github.com/sylph-dev/sylph/pkg/provider"
	"github.com/sylph-dev/sylph/pkg/router"
	"github.com/sylph-dev/sylph/pkg/static"
)

// Option customizes an App beyond its Config.
type Option func(*options)

type options struct {
	provider router.Provider
	loader   provider.LoadFunc
	catalog  *provider.Catalog
	static   static.Source
}

// WithProvider replaces the module provider. Config.Dir and the catalog
// are then unused for discovery.
func WithProvider(p router.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithLoader loads modules found in Config.Dir with load instead of the
// catalog, e.g. provider.PluginLoader{Root: dir}.Load.
func WithLoader(load provider.LoadFunc) Option {
	return func(o *options) {
		o.loader = load
	}
}

// WithCatalog uses cat as the App's catalog, e.g. provider.Default filled
// from init functions.
func WithCatalog(cat *provider.Catalog) Option {
	return func(o *options) {
		o.catalog = cat
	}
}

// WithStaticSource serves static files from src instead of Config.Public.
func WithStaticSource(src static.Source) Option {
	return func(o *options) {
		o.static = src
	}
}
