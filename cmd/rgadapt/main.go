package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/unalkalkan/rgadapt/internal/config"
	"github.com/unalkalkan/rgadapt/pkg/types"
)

const version = "0.1.0"

// errUnhealthy makes `doctor` exit non-zero without printing twice.
var errUnhealthy = errors.New("unhealthy")

// app holds what every subcommand needs, filled in before any of them runs.
type app struct {
	configPath string
	envFile    string
	logLevel   string

	cfg    *types.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errUnhealthy) {
			fmt.Fprintf(os.Stderr, "rgadapt: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "rgadapt",
		Short:         "Convert documents, archives and media into searchable text",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML configuration file")
	flags.StringVar(&a.envFile, "env-file", "", "path to a .env file (default ./.env if present)")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides the config)")

	root.AddCommand(
		newAdaptersCmd(a),
		newPreprocessCmd(a),
		newDoctorCmd(a),
		newCacheCmd(a),
	)
	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup() error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg.Logging)
	slog.SetDefault(a.logger)

	a.logger.Debug("configuration loaded", "config", a.configPath, "cache_disabled", cfg.Cache.Disabled)
	return nil
}

func newLogger(w io.Writer, cfg types.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return level
}
