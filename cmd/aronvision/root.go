package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/aronvision/internal/config"
	"github.com/ayusman/aronvision/internal/logger"
	"github.com/ayusman/aronvision/internal/store"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// settings is the configuration loaded before every subcommand.
	settings *config.Config
	// configPath is the optional YAML file layered over the defaults.
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "aronvision",
	Short:         "Hand and body pose recognition from a camera",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Init(); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		cfg, err := config.Load(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if err := logger.SetLevelString(cfg.LogLevel); err != nil {
			return err
		}
		settings = cfg
		return nil
	},
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	err := rootCmd.ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (ARON_* environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// openStore opens the session database under the configured data directory.
func openStore() (*store.Store, error) {
	if err := os.MkdirAll(settings.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(settings.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return st, nil
}
