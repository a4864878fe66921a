// Package main is the entry point for the sharppad editor and its CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sharppad/internal/config"
	"sharppad/internal/eventbus"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// exitError carries a process exit status without printing anything
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()

	var exit exitError
	switch {
	case errors.As(err, &exit):
		os.Exit(exit.code)
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sharppad [FILE]",
		Short: "A terminal text editor with incremental find and replace",
		Long: `sharppad edits one text file in the terminal.

Configuration is read from $XDG_CONFIG_HOME/sharppad/config.toml (or --config)
and can be overridden with SHARPPAD_* environment variables, for example
SHARPPAD_SEARCH_MIN_INTERVAL_MS or SHARPPAD_LOG_FILE.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runEditor(cmd.Context(), configPath, path)
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file")

	cmd.AddCommand(findCmd(&configPath))
	cmd.AddCommand(configCmd(&configPath))
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads the config file and environment overrides
func loadConfig(bus eventbus.EventBus, path string) (*config.Config, error) {
	cfg, err := config.NewConfigServiceWithBus(bus, path).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
