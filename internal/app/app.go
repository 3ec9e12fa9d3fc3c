// Package app wires configuration, logging, metrics and the presentation
// layer around a single Leibniz run.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/agbru/picalc/internal/cli"
	"github.com/agbru/picalc/internal/config"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/events"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/metrics"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/server"
	"github.com/agbru/picalc/internal/sysmon"
	"github.com/agbru/picalc/internal/tui"
	"github.com/agbru/picalc/internal/ui"
)

// shutdownTimeout bounds the graceful stop of the metrics server.
const shutdownTimeout = 5 * time.Second

// Application represents the picalc application instance.
type Application struct {
	Config    config.AppConfig
	ErrWriter io.Writer

	logger    logging.Logger
	collector *metrics.RunCollector
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithLogger replaces the logger built from the -log-level flag.
func WithLogger(l logging.Logger) AppOption {
	return func(a *Application) { a.logger = l }
}

// New creates a new Application instance by parsing command-line arguments.
// args[0] is the program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	programName := "picalc"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	app := &Application{
		Config:    cfg,
		ErrWriter: errWriter,
		collector: metrics.NewRunCollector(),
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = newLogger(cfg, errWriter)
	}
	return app, nil
}

func newLogger(cfg config.AppConfig, w io.Writer) logging.Logger {
	// The dashboard owns the terminal.
	if cfg.TUI {
		return logging.NopLogger{}
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return logging.NopLogger{}
	}
	return logging.NewConsoleLogger(w, "picalc", level)
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.InitTheme(a.Config.NoColor)

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	var instrumentation orchestration.Instrumentation = a.collector
	if a.Config.MetricsAddr != "" {
		bus := events.NewBus()
		stop, err := a.startMetricsServer(bus)
		if err != nil {
			fmt.Fprintf(a.ErrWriter, "Error starting metrics server: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		defer stop()
		instrumentation = orchestration.MultiInstrumentation{a.collector, events.NewPublisher(bus)}
	}

	runOpts := []orchestration.Option{
		orchestration.WithLogger(a.logger),
		orchestration.WithInstrumentation(instrumentation),
	}

	if a.Config.TUI {
		return tui.Run(ctx, a.Config, Version, runOpts...)
	}
	return a.runCalculate(ctx, out, runOpts)
}

// startMetricsServer exposes the run collector and the event stream of bus
// until the returned function is called.
func (a *Application) startMetricsServer(bus *events.Bus) (func(), error) {
	srv := server.New(a.Config.MetricsAddr, server.NewMetrics(a.collector.Registry()), a.logger,
		server.WithEventBus(bus))
	if err := srv.Start(); err != nil {
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Error("metrics server shutdown", err)
		}
		// Releases the websocket handlers, which Shutdown does not track.
		bus.Close()
	}, nil
}

// runCalculate orchestrates a CLI run and prints its report.
func (a *Application) runCalculate(ctx context.Context, out io.Writer, runOpts []orchestration.Option) int {
	if a.Config.Verbose && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, sysmon.Host(ctx), out)
	}

	var progressReporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	progressOut := out
	if a.Config.Quiet {
		progressReporter = orchestration.NullProgressReporter{}
		progressOut = io.Discard
	}

	mc := metrics.NewMemoryCollector()
	before := mc.Snapshot()

	runOpts = append(runOpts, orchestration.WithTimeout(a.Config.Timeout))
	result := orchestration.ExecuteRun(ctx, a.Config.ToRunOptions(), progressReporter, progressOut, runOpts...)

	if result.Err != nil {
		errOut := out
		if a.Config.Quiet {
			errOut = a.ErrWriter
		}
		return cli.CLIResultPresenter{}.HandleError(result.Err, result.Duration, errOut)
	}

	outputCfg := cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		Quiet:      a.Config.Quiet,
		Verbose:    a.Config.Verbose,
		Details:    a.Config.Details,
	}
	if err := cli.DisplayResultWithConfig(out, result, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	if a.Config.Details && !a.Config.Quiet {
		cli.DisplayMemoryStats(mc.Snapshot().Since(before), out)
	}
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
