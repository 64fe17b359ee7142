package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/MD-Studio/studiobuild/internal/config"
	"github.com/MD-Studio/studiobuild/internal/event"
	"github.com/MD-Studio/studiobuild/internal/logging"
	"github.com/MD-Studio/studiobuild/internal/metrics"
	"github.com/MD-Studio/studiobuild/internal/orchestrator"
	"github.com/MD-Studio/studiobuild/internal/report"
	"github.com/MD-Studio/studiobuild/internal/tasks"
)

// app is everything one CLI invocation needs to run pipelines
type app struct {
	runID    string
	cfg      *config.Config
	logger   *logging.Logger
	bus      *event.Bus
	orch     *orchestrator.Orchestrator
	reporter *report.Reporter
	metrics  *metrics.Collector
	server   *tasks.DevServer
	subs     []string
}

// appOptions lets tests replace the filesystem, tool runner and output
type appOptions struct {
	fs     afero.Fs
	runner tasks.CommandRunner
	out    io.Writer
	color  bool
}

func defaultAppOptions() appOptions {
	return appOptions{
		fs:    afero.NewOsFs(),
		out:   os.Stdout,
		color: report.ColorEnabled(os.Stdout),
	}
}

// newApp loads the configuration and registers every task.
func newApp(opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return newAppWithConfig(cfg, opts)
}

func newAppWithConfig(cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{
		runID:   uuid.NewString(),
		cfg:     cfg,
		bus:     event.NewBus(),
		metrics: metrics.New(),
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return nil, err
	}
	a.logger = logger.WithRun(a.runID)

	a.bus.OnPanic(func(eventType string, recovered any, stack []byte) {
		a.logger.Error("event handler panicked", "event", eventType, "panic", recovered, "stack", string(stack))
	})
	a.reporter = report.New(opts.out, opts.color)
	a.subs = append(a.reporter.Subscribe(a.bus), a.metrics.Subscribe(a.bus))
	a.logger.Debug("event bus ready", "subscriptions", a.bus.SubscriptionCount())

	a.orch = orchestrator.New(orchestrator.NewRegistry(),
		orchestrator.WithBus(a.bus),
		orchestrator.WithLogger(a.logger),
		orchestrator.WithRunID(a.runID),
	)

	a.server = tasks.NewDevServer(opts.fs, cfg.Paths.Dist, cfg.Server, a.metrics.Handler(), a.logger)
	err = tasks.Register(a.orch, tasks.Deps{
		Config:  cfg,
		Fs:      opts.fs,
		Runner:  opts.runner,
		Logger:  a.logger,
		Bus:     a.bus,
		Metrics: a.metrics.Handler(),
		Server:  a.server,
	})
	if err != nil {
		_ = a.logger.Close()
		return nil, err
	}
	return a, nil
}

// createLogger builds the logger described by the logging section
func createLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.New(logging.Options{
		File:  cfg.Logging.File,
		Level: cfg.Logging.Level,
		Rotation: logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		},
	})
}

// Close detaches the reporter and metrics from the bus and closes the log.
func (a *app) Close() error {
	for _, id := range a.subs {
		a.bus.Unsubscribe(id)
	}
	a.subs = nil
	return a.logger.Close()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
