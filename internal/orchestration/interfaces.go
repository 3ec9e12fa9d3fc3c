package orchestration

import (
	"io"
	"sync"
	"time"

	"github.com/agbru/picalc/internal/leibniz"
	"github.com/agbru/picalc/internal/progress"
)

// RunResult encapsulates the outcome of a single π computation.
// It serves as the shared domain type between orchestration and presentation layers.
type RunResult struct {
	// Pi is the approximation produced by the accumulator. It is 0 if an error occurred.
	Pi float64
	// Duration is the elapsed time reported by the accumulator, or the
	// wall-clock time until failure.
	Duration time.Duration
	// Jobs are the ranges the series was split into.
	Jobs []leibniz.Job
	// Workers is the pool size of the run.
	Workers int
	// TotalLength is the number of series terms.
	TotalLength int64
	// Err contains any error that occurred during the run.
	Err error
}

// PresentationOptions configures how results are presented to the user.
type PresentationOptions struct {
	Verbose bool
	Details bool
}

// ProgressReporter defines the interface for displaying run progress.
// This interface decouples the orchestration layer from the presentation layer.
//
// Implementations handle the visual representation of progress (spinners,
// progress bars, etc.) while the orchestration layer focuses on coordinating
// the workers and the accumulator.
type ProgressReporter interface {
	// DisplayProgress starts displaying progress updates from the channel.
	// It should be called in a separate goroutine and will run until the
	// progressChan is closed.
	//
	// Parameters:
	//   - wg: A WaitGroup to signal when display is complete.
	//   - progressChan: Channel receiving progress updates from the accumulator.
	//   - expected: The number of partial sums the run waits for.
	//   - out: The writer for progress output.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, expected int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, expected int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, expected int, out io.Writer) {
	f(wg, progressChan, expected, out)
}

// NullProgressReporter is a no-op implementation of ProgressReporter.
// It drains the progress channel without displaying anything.
// Useful for quiet mode or testing.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter defines the interface for presenting run results.
type ResultPresenter interface {
	// PresentResult displays the final approximation.
	PresentResult(result RunResult, opts PresentationOptions, out io.Writer)
}

// ErrorHandler handles run errors and returns exit codes.
type ErrorHandler interface {
	HandleError(err error, duration time.Duration, out io.Writer) int
}

// Instrumentation observes the lifecycle of a run. The metrics package
// provides a Prometheus implementation.
type Instrumentation interface {
	JobDispatched(job leibniz.Job)
	PartialReceived(worker int, job leibniz.Job, took time.Duration)
	RunFinished(result RunResult)
}

// NullInstrumentation discards every observation.
type NullInstrumentation struct{}

func (NullInstrumentation) JobDispatched(leibniz.Job)                       {}
func (NullInstrumentation) PartialReceived(int, leibniz.Job, time.Duration) {}
func (NullInstrumentation) RunFinished(RunResult)                           {}

// MultiInstrumentation fans every observation out to each member in order.
type MultiInstrumentation []Instrumentation

func (m MultiInstrumentation) JobDispatched(job leibniz.Job) {
	for _, i := range m {
		i.JobDispatched(job)
	}
}

func (m MultiInstrumentation) PartialReceived(worker int, job leibniz.Job, took time.Duration) {
	for _, i := range m {
		i.PartialReceived(worker, job, took)
	}
}

func (m MultiInstrumentation) RunFinished(result RunResult) {
	for _, i := range m {
		i.RunFinished(result)
	}
}
