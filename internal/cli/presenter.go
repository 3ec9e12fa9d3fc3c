package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/metrics"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/progress"
	"github.com/agbru/picalc/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter for CLI output.
// It wraps the DisplayProgress function to provide a spinner and progress bar
// display during a run.
type CLIProgressReporter struct{}

// Verify that CLIProgressReporter implements orchestration.ProgressReporter.
var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress displays a spinner and progress bar for the ongoing run.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, expected int, out io.Writer) {
	DisplayProgress(wg, progressChan, expected, out)
}

// CLIResultPresenter implements orchestration.ResultPresenter for CLI output.
type CLIResultPresenter struct{}

// Verify interface compliance.
var (
	_ orchestration.ResultPresenter = CLIResultPresenter{}
	_ orchestration.ErrorHandler    = CLIResultPresenter{}
)

// PresentResult displays the final approximation using DisplayResult.
func (CLIResultPresenter) PresentResult(result orchestration.RunResult, opts orchestration.PresentationOptions, out io.Writer) {
	DisplayResult(result, opts, out)
}

// HandleError handles run errors and returns an appropriate exit code.
func (CLIResultPresenter) HandleError(err error, duration time.Duration, out io.Writer) int {
	return apperrors.HandleCalculationError(err, duration, out, ui.CLIColorProvider{})
}

// DisplayResult prints the report line and, on request, the details block.
// The report line is never colored so that it stays machine-readable.
func DisplayResult(result orchestration.RunResult, opts orchestration.PresentationOptions, out io.Writer) {
	if opts.Verbose {
		fmt.Fprintf(out, "\n%s--- Result ---%s\n", ui.ColorBold(), ui.ColorReset())
	}
	fmt.Fprintln(out, FormatResult(result.Pi, result.Duration))

	if !opts.Details {
		return
	}
	fmt.Fprintf(out, "\n%sDetailed result analysis%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(out, "  Run time:        %s%s%s\n", ui.ColorPrimary(), format.FormatExecutionDuration(result.Duration), ui.ColorReset())
	fmt.Fprintf(out, "  Absolute error:  %s%.3e%s\n", ui.ColorPrimary(), metrics.AbsError(result.Pi), ui.ColorReset())
	fmt.Fprintf(out, "  Correct digits:  %s%d%s\n", ui.ColorPrimary(), metrics.CorrectDigits(result.Pi), ui.ColorReset())
	fmt.Fprintf(out, "  Terms:           %d\n", result.TotalLength)
	fmt.Fprintf(out, "  Jobs:            %d over %d workers\n", len(result.Jobs), result.Workers)
	for i, job := range result.Jobs {
		fmt.Fprintf(out, "    %s#%d%s %s (%d terms)\n", ui.ColorSecondary(), i, ui.ColorReset(), job, job.Length)
	}
}

// DisplayMemoryStats shows memory statistics collected around a run.
func DisplayMemoryStats(delta metrics.MemoryDelta, out io.Writer) {
	fmt.Fprintf(out, "\nMemory Stats:\n")
	fmt.Fprintf(out, "  Heap in use:     %s\n", format.FormatBytes(delta.HeapInUse))
	fmt.Fprintf(out, "  Allocated:       %s\n", format.FormatBytes(delta.Allocated))
	fmt.Fprintf(out, "  System memory:   %s\n", format.FormatBytes(delta.Sys))
	fmt.Fprintf(out, "  GC cycles:       %d\n", delta.GCCycles)
	fmt.Fprintf(out, "  GC pause total:  %.2fms\n", float64(delta.PauseNs)/1e6)
	fmt.Fprintf(out, "  Goroutines:      %d\n", delta.Goroutines)
}
