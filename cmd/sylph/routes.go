package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sylph-dev/sylph/internal/logging"
)

func routesCmd(configPath *string) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the discovered route table",
		Long: `Discover modules and print the route table in bind order without
serving. Static routes are listed before dynamic ones, as they are bound.

Exits non-zero when a module failed to load.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(*configPath, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log discovery while scanning")

	return cmd
}

func runRoutes(configPath string, verbose bool) error {
	cfg, err := loadConfig(configPath, overrides{verbose: verbose})
	if err != nil {
		return err
	}

	logger := logging.NewDiscard()
	if verbose {
		logger = newLogger(cfg)
	}
	app, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	report, err := app.Engine().Scan(context.Background())
	if err != nil {
		return err
	}

	if err := app.PrintRoutes(os.Stdout); err != nil {
		return err
	}
	for _, name := range report.Middleware {
		fmt.Printf("%-7s %s\n", "MW", name)
	}

	if len(report.Failures) > 0 {
		fmt.Println()
		for _, f := range report.Failures {
			warn("%s: %v", f.Path, f.Err)
		}
		return fmt.Errorf("%d module(s) failed to load", len(report.Failures))
	}
	return nil
}
