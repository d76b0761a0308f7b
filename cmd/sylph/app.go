package main

import (
	"log/slog"
	"os"

	"github.com/sylph-dev/sylph"
	"github.com/sylph-dev/sylph/internal/config"
	"github.com/sylph-dev/sylph/internal/logging"
	"github.com/sylph-dev/sylph/pkg/provider"
	"github.com/sylph-dev/sylph/pkg/static"
)

// pluginExtensions are loadable by the CLI; .go sources need a compiled
// program that registers them in a catalog.
var pluginExtensions = []string{".so"}

// overrides are flag values that win over the config file.
type overrides struct {
	port    int
	watch   bool
	silent  bool
	verbose bool
}

func loadConfig(path string, o overrides) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}

	if o.port > 0 {
		cfg.Port = o.port
	}
	cfg.Watch = cfg.Watch || o.watch
	cfg.Silent = cfg.Silent || o.silent
	cfg.Verbose = cfg.Verbose || o.verbose

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(os.Stdout, logging.Level(cfg.Silent, cfg.Verbose))
}

// newApp builds an App that loads plugin modules from the configured base
// path.
func newApp(cfg *config.Config, logger *slog.Logger) (*sylph.App, error) {
	base := cfg.BaseDir()

	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = pluginExtensions
	}

	opts := []sylph.Option{
		sylph.WithLoader(provider.PluginLoader{Root: base}.Load),
	}
	if cfg.Static.Bucket != "" {
		opts = append(opts, sylph.WithStaticSource(static.NewS3Source(static.S3Config{
			Bucket:   cfg.Static.Bucket,
			Region:   cfg.Static.Region,
			Endpoint: cfg.Static.Endpoint,
			Prefix:   cfg.Static.Prefix,
		})))
	}

	return sylph.New(sylph.Config{
		Dir:         base,
		APIBase:     cfg.APIBase,
		Port:        cfg.Port,
		Origins:     cfg.Origins,
		HistoryMode: cfg.HistoryMode,
		Watch:       cfg.Watch,
		Public:      cfg.PublicDir(),
		Extensions:  extensions,
		Exclude:     cfg.DiscoveryExclude(provider.DefaultExclude),
		Logger:      logger,
	}, opts...)
}
