package sylph

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
	"github.com/sylph-dev/sylph/pkg/router"
	"github.com/sylph-dev/sylph/pkg/static"
)

// DefaultPort is used when neither the caller, the Config nor the PORT
// environment variable chooses one.
const DefaultPort = 3000

// Routing selects how discovered routes are matched.
type Routing int

const (
	// RoutingSequential matches routes in bind order: static routes first,
	// then dynamic routes in discovery order. The first match wins.
	RoutingSequential Routing = iota

	// RoutingChi binds routes on a chi tree, where static segments outrank
	// parameters at every level regardless of discovery order.
	RoutingChi
)

// Config configures an App.
type Config struct {
	// Dir is the module directory. When set, Dir is walked for module paths
	// and each path is loaded through the App's catalog (or the loader
	// given with WithLoader). When empty, the catalog alone is the provider.
	Dir string

	// APIBase prefixes every route pattern ("api" → /api/...).
	APIBase string

	// Port is the listen port. Zero falls back to PORT, SYLPH_PORT, then
	// DefaultPort.
	Port int

	// Origins lists allowed CORS origins. Empty disables CORS.
	Origins []string

	// HistoryMode serves index.html for unmatched GET requests accepting
	// HTML.
	HistoryMode bool

	// Routing selects the route matcher. Default RoutingSequential.
	Routing Routing

	// Watch rediscovers added and changed modules while serving.
	Watch bool

	// Public is the static file directory. Empty uses <Dir>/public.
	Public string

	// Cache selects the Cache-Control policy for static files. Watch
	// forces static.CacheDisabled.
	Cache static.CacheControl

	// Extensions lists module extensions. Empty uses the router defaults.
	Extensions []string

	// Exclude lists directory names skipped during discovery.
	Exclude []string

	// Silent discards console logging. Verbose enables debug records.
	// Both are ignored when Logger is set.
	Silent  bool
	Verbose bool

	Logger *slog.Logger

	// Registerer receives discovery metrics. Nil disables them.
	Registerer prometheus.Registerer

	// MetricsPath mounts a Prometheus scrape endpoint when set.
	MetricsPath string

	// ShutdownTimeout bounds graceful shutdown. Default 5s.
	ShutdownTimeout time.Duration

	// Concurrency bounds concurrent module loads per discovery pass.
	Concurrency int

	// ErrorHandler receives failed requests. Nil uses
	// router.DefaultErrorHandler.
	ErrorHandler router.ErrorHandler

	// AppState is shared with every handler as Context.State.
	AppState any
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return rerrors.New(rerrors.CodeInvalidPort).
			WithDetail("Port must be between 0 and 65535, got " + strconv.Itoa(c.Port))
	}
	return nil
}

func (c Config) publicDir() string {
	if c.Public != "" {
		return c.Public
	}
	if c.Dir == "" {
		return ""
	}
	return filepath.Join(c.Dir, "public")
}

func (c Config) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout > 0 {
		return c.ShutdownTimeout
	}
	return 5 * time.Second
}

// resolvePort picks the listen port: the argument, the Config, PORT,
// SYLPH_PORT, then DefaultPort.
func (c Config) resolvePort(port int) int {
	if port > 0 {
		return port
	}
	if c.Port > 0 {
		return c.Port
	}
	for _, name := range []string{"PORT", "SYLPH_PORT"} {
		if v, err := strconv.Atoi(os.Getenv(name)); err == nil && v > 0 {
			return v
		}
	}
	return DefaultPort
}
