//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/progress"
	"github.com/agbru/picalc/internal/ui"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner is an interface that abstracts the behavior of a terminal spinner.
// This allows for the decoupling of the `DisplayProgress` function from a
// specific spinner implementation, facilitating easier testing and maintenance.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner is a wrapper for the `spinner.Spinner` that implements the
// `Spinner` interface.
type realSpinner struct {
	s *spinner.Spinner
}

// Start begins the spinner animation.
func (rs *realSpinner) Start() {
	rs.s.Start()
}

// Stop halts the spinner animation.
func (rs *realSpinner) Stop() {
	rs.s.Stop()
}

// UpdateSuffix sets the text that is displayed after the spinner.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	// Using the same interval as ProgressRefreshRate to synchronize
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// progressBar generates a string representing a textual progress bar.
//
// Parameters:
//   - fraction: The normalized progress value (0.0 to 1.0).
//   - length: The total character width of the progress bar.
//
// Returns:
//   - string: A string representation of the progress bar.
func progressBar(fraction float64, length int) string {
	fraction = min(max(fraction, 0.0), 1.0)
	count := int(fraction * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := range length {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// FormatProgressLine renders the spinner suffix for the given aggregate.
func FormatProgressLine(p orchestration.AggregatedProgress) string {
	return fmt.Sprintf(" Summing series: %s%d/%d%s partial sums %s %6.2f%% ETA: %s",
		ui.ColorPrimary(), p.Received, p.Expected, ui.ColorReset(),
		progressBar(p.Fraction, ProgressBarWidth), p.Fraction*100,
		format.FormatETA(p.ETA))
}

// DisplayProgress shows a spinner and a progress bar until progressChan is
// closed. The bar counts partial sums received by the accumulator; the line
// is refreshed on every update and on a ticker in between.
//
// Parameters:
//   - wg: The WaitGroup signalled when the display stops.
//   - progressChan: Channel receiving progress updates.
//   - expected: The number of partial sums the run waits for.
//   - out: The writer the spinner renders to.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, expected int, out io.Writer) {
	defer wg.Done()
	agg := orchestration.NewProgressAggregator(expected)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(spinner.WithWriter(out), spinner.WithHiddenCursor(true))
	current := orchestration.AggregatedProgress{Expected: expected}
	s.UpdateSuffix(FormatProgressLine(current))
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				fmt.Fprintf(out, "%s\n", strings.TrimLeft(FormatProgressLine(current), " "))
				return
			}
			current = agg.Update(update)
			s.UpdateSuffix(FormatProgressLine(current))
		case <-ticker.C:
			current.ETA = agg.ETA()
			s.UpdateSuffix(FormatProgressLine(current))
		}
	}
}
