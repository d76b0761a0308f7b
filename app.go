package sylph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/sylph-dev/sylph/internal/dev"
	"github.com/sylph-dev/sylph/internal/logging"
	"github.com/sylph-dev/sylph/pkg/provider"
	"github.com/sylph-dev/sylph/pkg/routepath"
	"github.com/sylph-dev/sylph/pkg/router"
	"github.com/sylph-dev/sylph/pkg/static"
)

// FaviconPath is answered before any discovered route.
const FaviconPath = "/favicon.ico"

// App discovers modules, binds them in bind order and serves them with
// static files, CORS and an optional reload socket around the routes. Fixed
// endpoints (favicon, reload socket, metrics) sit on a chi router in front
// of the discovered routes.
//
//	app, err := sylph.New(sylph.Config{Dir: "server", APIBase: "api"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.Middleware("auth", requireUser)
//	if err := app.Start(ctx, 0); err != nil {
//	    log.Fatal(err)
//	}
type App struct {
	cfg    Config
	logger *slog.Logger

	catalog  *provider.Catalog
	provider router.Provider
	engine   *router.Engine
	binder   routeBinder
	static   *static.Handler
	reload   *dev.ReloadServer
	handler  http.Handler

	scanOnce sync.Once
	scanErr  error
}

// routeBinder is a Binder that also serves the routes bound on it.
type routeBinder interface {
	router.Binder
	http.Handler
}

// New creates an App. Discovery runs on the first Discover or Start.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New(os.Stdout, logging.Level(cfg.Silent, cfg.Verbose))
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		catalog: o.catalog,
	}
	if a.catalog == nil {
		a.catalog = provider.NewCatalog()
	}
	a.provider = a.buildProvider(o)

	if cfg.Watch {
		a.reload = dev.NewReloadServer()
	}

	src := o.static
	if src == nil && cfg.publicDir() != "" {
		src = static.NewDirSource(cfg.publicDir())
	}
	if src != nil {
		cache := cfg.Cache
		if cfg.Watch {
			cache = static.CacheDisabled
		}
		a.static = static.NewHandler(src, static.Options{
			Cache:       cache,
			HistoryMode: cfg.HistoryMode,
			Logger:      logger,
		})
	}

	a.binder = a.buildBinder()

	var metrics *router.Metrics
	if cfg.Registerer != nil {
		metrics = router.NewMetrics("sylph", cfg.Registerer)
	}

	a.engine = router.NewEngine(router.Options{
		Provider: a.provider,
		Binder:   a.binder,
		Resolver: routepath.Resolver{
			APIBase:    cfg.APIBase,
			Extensions: cfg.Extensions,
		},
		ErrorHandler: cfg.ErrorHandler,
		Logger:       logger,
		AppState:     cfg.AppState,
		Metrics:      metrics,
		Concurrency:  cfg.Concurrency,
		OnPass:       a.onPass,
	})

	front := chi.NewRouter()
	a.mountFixed(front)
	front.NotFound(a.serveRoutes)
	front.MethodNotAllowed(a.serveRoutes)

	a.handler = front
	if len(cfg.Origins) > 0 {
		a.handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.Origins,
			AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(front)
	}

	return a, nil
}

func (a *App) buildProvider(o options) router.Provider {
	if o.provider != nil {
		return o.provider
	}
	if a.cfg.Dir == "" {
		return a.catalog
	}

	load := o.loader
	if load == nil {
		load = a.catalog.Load
	}
	return &provider.Dir{
		Root:       a.cfg.Dir,
		Loader:     load,
		Extensions: a.cfg.Extensions,
		Exclude:    a.cfg.Exclude,
		Logger:     a.logger,
	}
}

// buildBinder creates the binder discovered routes are bound on. Requests
// no route matches fall through to the static handler.
func (a *App) buildBinder() routeBinder {
	if a.cfg.Routing == RoutingChi {
		return router.NewChiBinder(func(r chi.Router) {
			if a.static != nil {
				r.NotFound(a.static.ServeHTTP)
				r.MethodNotAllowed(a.static.ServeHTTP)
			}
		})
	}
	mux := router.NewMux()
	if a.static != nil {
		mux.NotFound = a.static
	}
	return mux
}

// serveRoutes hands a request the fixed endpoints did not answer to the
// discovered routes, with a fresh chi route context.
func (a *App) serveRoutes(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, nil)
	a.binder.ServeHTTP(w, r.WithContext(ctx))
}

// mountFixed mounts the endpoints answered before any discovered route.
func (a *App) mountFixed(r chi.Router) {
	r.Get(FaviconPath, a.serveFavicon)
	if a.reload != nil {
		r.Handle(dev.ReloadPath, a.reload)
	}
	if a.cfg.MetricsPath != "" {
		r.Handle(a.cfg.MetricsPath, a.metricsHandler())
	}
}

func (a *App) metricsHandler() http.Handler {
	if g, ok := a.cfg.Registerer.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// serveFavicon serves favicon.ico from the static source, or answers 204.
func (a *App) serveFavicon(w http.ResponseWriter, r *http.Request) {
	if a.static != nil && a.static.Exists(r) {
		a.static.ServeHTTP(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) onPass(report *router.Report) {
	if a.reload != nil {
		a.reload.NotifyPass(report)
	}
}

// Register adds a module to the App's catalog under its conventional path.
func (a *App) Register(path string, mod router.Module) {
	a.catalog.Register(path, mod)
}

// Handle registers a route handler under its conventional path.
func (a *App) Handle(path string, h router.HandlerFunc, mw ...router.Ref) {
	a.catalog.Handle(path, h, mw...)
}

// Middleware registers mw under name. Routes resolve names at request
// time, so registering after discovery is fine.
func (a *App) Middleware(name string, mw router.Middleware) {
	a.engine.Registry().Register(name, mw)
}

// Use prepends refs to every route's chain, including routes already bound.
func (a *App) Use(refs ...router.Ref) {
	a.engine.Use(refs...)
}

// Discover runs the initial discovery pass. Later calls return the first
// result.
func (a *App) Discover(ctx context.Context) error {
	a.scanOnce.Do(func() {
		report, err := a.engine.Scan(ctx)
		if err != nil {
			a.scanErr = err
			return
		}
		a.logger.Debug("discovery finished",
			"routes", len(report.Bound),
			"middleware", len(report.Middleware),
			"failures", len(report.Failures),
			"duration", report.Duration)
	})
	return a.scanErr
}

// Rescan runs a full discovery pass again.
func (a *App) Rescan(ctx context.Context) (*router.Report, error) {
	return a.engine.Scan(ctx)
}

// Routes returns every bound route in bind order.
func (a *App) Routes() []routepath.Key {
	return a.engine.Routes()
}

// Engine returns the discovery engine.
func (a *App) Engine() *router.Engine {
	return a.engine
}

// Handler returns the App's root handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// PrintRoutes writes the route table, one "METHOD /pattern" per line.
func (a *App) PrintRoutes(w io.Writer) error {
	for _, k := range a.Routes() {
		if _, err := fmt.Fprintf(w, "%-7s %s\n", k.Method, k.Pattern); err != nil {
			return err
		}
	}
	return nil
}
