// Package main provides the updater command: it fetches the open-data
// catalog, renders starter code for every supported resource, and writes the
// overview.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"startercode/internal/catalog"
	"startercode/internal/config"
	"startercode/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/updater.yaml"

var (
	configPath   string
	snapshotPath string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:           "updater",
	Short:         "Generate starter code for open-data catalog resources",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file (default "+defaultConfigPath+")")
	rootCmd.PersistentFlags().StringVarP(&snapshotPath, "snapshot", "s", "", "Read the catalog from a snapshot file instead of the API")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration. Without an explicit --config it falls
// back to built-in defaults when the default file is absent.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); errors.Is(err, os.ErrNotExist) {
			cfg := config.Default()
			cfg.MergeEnv()

			return cfg, applyOverrides(cfg)
		}

		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	return cfg, applyOverrides(cfg)
}

func applyOverrides(cfg *config.Config) error {
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if snapshotPath != "" {
		cfg.Fetch.Snapshot = snapshotPath
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
}

// newSource reads from fetch.snapshot (or --snapshot) when set and from the
// catalog API otherwise.
func newSource(cfg *config.Config, log *logger.Logger) catalog.Source {
	var opts []catalog.Option

	if cfg.Logging.ShowProgress {
		spinner := getSpinner("Fetching catalog")
		opts = append(opts, catalog.WithPageFunc(func(page, datasets int) {
			spinner.Describe(color.CyanString("Fetching catalog: page %d, %d datasets", page, datasets))
			_ = spinner.Add(1)
		}))
	}

	return catalog.NewSource(cfg, log, opts...)
}
