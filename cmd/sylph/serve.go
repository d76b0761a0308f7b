package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func serveCmd(configPath *string) *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Discover modules and serve them",
		Long: `Discover modules under the base path and serve them.

With --watch, added and changed modules are discovered while serving and
connected browsers are notified over /_sylph/reload. Removed modules stay
bound until restart.

Examples:
  sylph serve
  sylph serve --port=8080 --watch
  sylph serve --config=deploy/sylph.yaml --silent`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath, o)
		},
	}

	cmd.Flags().IntVarP(&o.port, "port", "p", 0, "Port to listen on (default from config, PORT, or 3000)")
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Watch the base path for new and changed modules")
	cmd.Flags().BoolVarP(&o.silent, "silent", "s", false, "Disable route logging")
	cmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runServe(configPath string, o overrides) error {
	cfg, err := loadConfig(configPath, o)
	if err != nil {
		return err
	}

	if !cfg.Silent {
		printBanner()
		info("Sylph Engine Starting")
		fmt.Println()
	}

	app, err := newApp(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if !cfg.Silent {
			fmt.Println("\n\n  Shutting down...")
		}
		cancel()
	}()

	if err := app.Discover(ctx); err != nil {
		return err
	}
	if len(app.Routes()) == 0 {
		warn("No routes found under %s", cfg.BaseDir())
	}
	if !cfg.Silent {
		fmt.Println()
		info("Sylph %s listening on port %d", version, cfg.Port)
		fmt.Println()
	}

	return app.Start(ctx, cfg.Port)
}

