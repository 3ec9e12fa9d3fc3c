package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/leibniz"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/progress"
)

// TracerName is the instrumentation scope of the spans emitted by ExecuteRun.
const TracerName = "github.com/agbru/picalc/internal/orchestration"

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. Updates beyond the buffer are dropped rather than blocking the
// accumulator.
const ProgressBufferMultiplier = 2

// runConfig holds the optional collaborators of ExecuteRun.
type runConfig struct {
	logger          logging.Logger
	instrumentation Instrumentation
	tracer          trace.Tracer
	timeout         time.Duration
}

// Option customizes ExecuteRun.
type Option func(*runConfig)

// WithLogger sets the logger used for run lifecycle events.
func WithLogger(l logging.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInstrumentation sets the observer notified of dispatches, partial sums
// and the final result.
func WithInstrumentation(i Instrumentation) Option {
	return func(c *runConfig) {
		if i != nil {
			c.instrumentation = i
		}
	}
}

// WithTracer overrides the tracer obtained from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *runConfig) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithTimeout bounds the whole run. A zero or negative value disables the
// deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *runConfig) { c.timeout = d }
}

// ExecuteRun orchestrates one Leibniz computation.
//
// It splits the series into one job per worker, starts the accumulator and
// the worker pool under a shared errgroup, submits the jobs in round-robin
// order, and waits until the accumulator completes or the run fails.
// Progress updates are forwarded to the reporter, which runs in its own
// goroutine until the progress channel is closed.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - opts: The run options (series length, workers, mailbox capacity).
//   - progressReporter: The progress reporter (use NullProgressReporter for quiet mode).
//   - out: The io.Writer for displaying progress updates.
//   - runOpts: Optional logger, instrumentation, tracer and timeout.
//
// Returns:
//   - RunResult: The approximation and elapsed time, or the error of the run.
func ExecuteRun(ctx context.Context, opts leibniz.Options, progressReporter ProgressReporter, out io.Writer, runOpts ...Option) RunResult {
	cfg := runConfig{
		logger:          logging.NopLogger{},
		instrumentation: NullInstrumentation{},
		tracer:          otel.Tracer(TracerName),
	}
	for _, o := range runOpts {
		o(&cfg)
	}

	result := RunResult{Workers: opts.Workers, TotalLength: opts.TotalLength}
	if err := opts.Validate(); err != nil {
		result.Err = err
		cfg.instrumentation.RunFinished(result)
		return result
	}

	ctx, span := cfg.tracer.Start(ctx, "picalc.run", trace.WithAttributes(
		attribute.Int64("picalc.length", opts.TotalLength),
		attribute.Int("picalc.workers", opts.Workers),
	))
	defer span.End()

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	start := time.Now()
	jobs := leibniz.Split(opts.TotalLength, opts.Workers)
	result.Jobs = jobs
	cfg.logger.Debug("run started",
		logging.Int64("length", opts.TotalLength),
		logging.Int("workers", opts.Workers),
		logging.Int("jobs", len(jobs)),
	)

	progressChan := make(chan progress.ProgressUpdate, len(jobs)*ProgressBufferMultiplier)
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go progressReporter.DisplayProgress(&displayWg, progressChan, len(jobs), out)

	err := run(ctx, cfg, opts, jobs, progressChan, &result)

	// The accumulator and workers have stopped, nothing sends anymore.
	close(progressChan)
	displayWg.Wait()

	if err != nil {
		result.Err = classifyError(err, cfg.timeout)
		result.Duration = time.Since(start)
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
		cfg.logger.Error("run failed", result.Err, logging.Duration("elapsed", result.Duration))
	} else {
		span.SetAttributes(attribute.Float64("picalc.pi", result.Pi))
		cfg.logger.Info("run completed",
			logging.Float64("pi", result.Pi),
			logging.Duration("elapsed", result.Duration),
		)
	}
	cfg.instrumentation.RunFinished(result)
	return result
}

// run wires the accumulator to the pool and drives both to completion. On
// success it fills result.Pi and result.Duration from the accumulator report.
func run(ctx context.Context, cfg runConfig, opts leibniz.Options, jobs []leibniz.Job, progressChan chan<- progress.ProgressUpdate, result *RunResult) error {
	acc, err := leibniz.NewAccumulator(len(jobs),
		leibniz.WithProgressFunc(func(received, expected int) {
			select {
			case progressChan <- progress.ProgressUpdate{Received: received, Expected: expected}:
			default:
			}
		}),
	)
	if err != nil {
		return err
	}

	poolOpts := append(opts.PoolOptions(), leibniz.WithJobObserver(
		func(worker int, job leibniz.Job, partial float64, took time.Duration) {
			cfg.instrumentation.PartialReceived(worker, job, took)
			cfg.logger.Debug("partial sum computed",
				logging.Int("worker", worker),
				logging.String("job", job.String()),
				logging.Float64("partial", partial),
				logging.Duration("took", took),
			)
		}))
	pool, err := leibniz.NewPool(opts.Workers, acc, poolOpts...)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return acc.Run(gctx)
	})
	g.Go(func() error {
		return dispatch(gctx, cfg, pool, jobs)
	})
	waitErr := g.Wait()

	// A completed accumulator is authoritative: every partial sum was added.
	if report, ok := acc.Report(); ok {
		result.Pi = report.Pi
		result.Duration = report.Elapsed
		return nil
	}
	if waitErr == nil {
		return errors.New("run stopped before the accumulator completed")
	}
	return waitErr
}

// dispatch starts the pool, submits every job and closes the pool, returning
// the first worker error.
func dispatch(ctx context.Context, cfg runConfig, pool *leibniz.Pool, jobs []leibniz.Job) error {
	ctx, span := cfg.tracer.Start(ctx, "picalc.dispatch", trace.WithAttributes(
		attribute.Int("picalc.jobs", len(jobs)),
	))
	defer span.End()

	if err := pool.Start(ctx); err != nil {
		return err
	}
	cfg.logger.Debug("pool started", logging.Int("workers", pool.Size()))
	for _, job := range jobs {
		if err := pool.Submit(ctx, job); err != nil {
			// Close reports the worker failure that caused the cancellation, if any.
			if closeErr := pool.Close(); closeErr != nil {
				return closeErr
			}
			return fmt.Errorf("submitting job %s: %w", job, err)
		}
		cfg.instrumentation.JobDispatched(job)
	}
	return pool.Close()
}

// classifyError maps a deadline expiry to a TimeoutError so callers can
// select the timeout exit code.
func classifyError(err error, timeout time.Duration) error {
	if timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
		return apperrors.TimeoutError{Operation: "leibniz run", Limit: timeout}
	}
	return err
}

// PresentRun displays the result of a run through the presenter, or the
// error through the handler, and returns the process exit code.
//
// Parameters:
//   - result: The outcome of ExecuteRun.
//   - opts: The presentation options.
//   - presenter: The result presenter for display formatting.
//   - handler: The error handler used when the run failed.
//   - out: The io.Writer for the report.
//
// Returns:
//   - int: An exit code indicating success (0) or the type of failure.
func PresentRun(result RunResult, opts PresentationOptions, presenter ResultPresenter, handler ErrorHandler, out io.Writer) int {
	if result.Err != nil {
		return handler.HandleError(result.Err, result.Duration, out)
	}
	presenter.PresentResult(result, opts, out)
	return apperrors.ExitSuccess
}
