package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗┬ ┬┬  ┌─┐┬ ┬
  ╚═╗└┬┘│  ├─┘├─┤
  ╚═╝ ┴ ┴─┘┴  ┴ ┴
`

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "sylph",
		Short: "Serve a directory of handler modules as HTTP routes",
		Long: `Sylph turns a directory of handler modules into HTTP routes.

The first directory of a module path is the method, the rest is the URL:

  server/get/users/_id.so   → GET /users/:id
  server/post/login.so      → POST /login
  server/middleware/auth.so → middleware "auth"

Modules are Go plugins built with -buildmode=plugin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default sylph.{json,yaml,toml} in the working directory)")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		routesCmd(&configPath),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		rerrors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// printBanner prints the Sylph ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
