package orchestration

import (
	"time"

	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/progress"
)

// ProgressAggregator turns accumulator progress updates into a completion
// fraction and an ETA. Both CLI and TUI use this to avoid duplicating the
// aggregation setup and update logic.
type ProgressAggregator struct {
	eta      *format.ETAEstimator
	expected int
	last     progress.ProgressUpdate
}

// NewProgressAggregator creates a new aggregator for a run expecting the
// given number of partial sums. Returns nil if expected <= 0.
func NewProgressAggregator(expected int) *ProgressAggregator {
	if expected <= 0 {
		return nil
	}
	return &ProgressAggregator{
		eta:      format.NewETAEstimator(),
		expected: expected,
		last:     progress.ProgressUpdate{Expected: expected},
	}
}

// AggregatedProgress holds the result of processing a single progress update.
type AggregatedProgress struct {
	// Received is the number of partial sums added so far.
	Received int
	// Expected is the number of partial sums the run waits for.
	Expected int
	// Fraction is Received/Expected in [0, 1].
	Fraction float64
	// ETA is the estimated time remaining based on the smoothed progress rate.
	ETA time.Duration
}

// Update processes a single progress update and returns the aggregated result.
// Updates older than the latest one seen are ignored.
func (a *ProgressAggregator) Update(update progress.ProgressUpdate) AggregatedProgress {
	if update.Received >= a.last.Received {
		a.last = progress.ProgressUpdate{Received: update.Received, Expected: a.expected}
	}
	eta := a.eta.Update(a.last.Fraction())
	return AggregatedProgress{
		Received: a.last.Received,
		Expected: a.expected,
		Fraction: a.last.Fraction(),
		ETA:      eta,
	}
}

// Fraction returns the current completion fraction without updating.
// Useful for periodic refresh between updates (e.g., CLI ticker).
func (a *ProgressAggregator) Fraction() float64 {
	return a.last.Fraction()
}

// ETA returns the current ETA estimate without updating.
func (a *ProgressAggregator) ETA() time.Duration {
	return a.eta.ETA()
}

// Elapsed returns the time since the aggregator was created.
func (a *ProgressAggregator) Elapsed() time.Duration {
	return a.eta.Elapsed()
}

// Expected returns the number of partial sums being tracked.
func (a *ProgressAggregator) Expected() int {
	return a.expected
}

// Received returns the latest received count.
func (a *ProgressAggregator) Received() int {
	return a.last.Received
}

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan progress.ProgressUpdate) {
	for range progressChan {
	}
}
