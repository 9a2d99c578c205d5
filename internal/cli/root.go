package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds a fresh command tree so that flag state never leaks
// between invocations.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sofictl",
		Short: "Manage vacancy search settings on the Sofi backend",
		Long: `sofictl - vacancy search settings manager

Edits search settings locally, pushes them to the backend as the search
preferences of your position and shows how many vacancies currently match.

Credentials come from SOFI_AUTH_USERNAME / SOFI_AUTH_PASSWORD (development)
or from an interactive prompt (production).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Connection flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default: $XDG_CONFIG_HOME/sofictl/config.toml)")
	rootCmd.PersistentFlags().String("base-url", "", "Backend API root (overrides config)")
	rootCmd.PersistentFlags().String("mode", "", "Runtime mode (development, production)")
	rootCmd.PersistentFlags().String("proxy", "", "Proxy URL (http://host:port or socks5://host:port)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Request timeout (overrides config)")
	rootCmd.PersistentFlags().String("store", "", "Local settings store (sqlite, redis, memory)")

	// Output flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "Output format (text, json)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newPositionsCmd(),
		newPrefsCmd(),
		newCountCmd(),
		newCatalogCmd(),
		newSettingsCmd(),
		newWatchCmd(),
	)
	return rootCmd
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sofictl %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
