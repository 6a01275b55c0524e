package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opsguru/signature-reloader/internal/pkg/config"
	"github.com/opsguru/signature-reloader/internal/pkg/metrics"
	"github.com/opsguru/signature-reloader/internal/pkg/supervisor"
)

func main() {
	if err := newReloaderCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newReloaderCommand() *cobra.Command {
	cfg := config.NewDefault()

	cmd := &cobra.Command{
		Use:   "reloader",
		Short: "Watches ConfigMaps and Secrets and rolls the workloads that reference them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}

	config.BindFlags(cmd.PersistentFlags(), cfg)
	return cmd
}

func run(cfg *config.Config) error {
	if err := config.ApplyFlags(cfg); err != nil {
		return fmt.Errorf("applying flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	log, err := configureLogging(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}

	log.Info("starting signature-reloader")

	if cfg.Alerting.Enabled {
		log.Info("alerting enabled", "sink", cfg.Alerting.Sink)
	}

	collectors := metrics.SetupPrometheusEndpoint()
	go serveMetrics(cfg.MetricsAddr, log)

	sup, err := supervisor.NewInCluster(cfg, log, &collectors)
	if err != nil {
		return fmt.Errorf("starting supervisor: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := sup.Run(ctx); err != nil {
		return fmt.Errorf("supervisor exited with error: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

func serveMetrics(addr string, log logr.Logger) {
	log.Info("starting metrics server", "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil && err != http.ErrServerClosed {
		log.Error(err, "metrics server exited unexpectedly")
	}
}

func configureLogging(logFormat, logLevel string) (logr.Logger, error) {
	var level zerolog.Level
	switch logLevel {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "info", "":
		level = zerolog.InfoLevel
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "fatal":
		level = zerolog.FatalLevel
	case "panic":
		level = zerolog.PanicLevel
	default:
		return logr.Logger{}, fmt.Errorf("unsupported log level: %q", logLevel)
	}

	var zl zerolog.Logger
	switch logFormat {
	case "json":
		zl = zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	case "":
		zl = zerolog.New(
			zerolog.ConsoleWriter{
				Out:        os.Stdout,
				TimeFormat: time.RFC3339,
			},
		).Level(level).With().Timestamp().Logger()
	default:
		return logr.Logger{}, fmt.Errorf("unsupported log format: %q", logFormat)
	}

	return zerologr.New(&zl), nil
}
