package leibniz

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

var (
	// ErrAccumulatorRetired is returned by Deliver once the accumulator has
	// accepted every expected partial sum. A partial sum accepted with a nil
	// error is always added to the total.
	ErrAccumulatorRetired = errors.New("leibniz: accumulator retired")
	// ErrAccumulatorRunning is returned by Run when another Run is active or
	// has already completed.
	ErrAccumulatorRunning = errors.New("leibniz: accumulator already running")
)

// State is the lifecycle state of an Accumulator.
type State int32

const (
	// StateCreated means no partial sum has been received yet.
	StateCreated State = iota
	// StateAccumulating means at least one, but not all, partial sums arrived.
	StateAccumulating
	// StateCompleted is terminal: every expected partial sum was added.
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAccumulating:
		return "accumulating"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Report is the final outcome of a run.
type Report struct {
	// Pi is the sum of all partial results.
	Pi float64
	// Elapsed is the wall-clock time between the creation of the
	// accumulator and the arrival of the last partial sum.
	Elapsed time.Duration
	// Partials is the number of partial sums combined.
	Partials int
}

// ElapsedSeconds returns Elapsed in seconds.
func (r Report) ElapsedSeconds() float64 { return r.Elapsed.Seconds() }

// ResultSink receives the partial sums emitted by workers.
type ResultSink interface {
	Deliver(ctx context.Context, partial float64) error
}

// AccumulatorOption configures an Accumulator.
type AccumulatorOption func(*Accumulator)

// WithReportFunc registers fn to be called once, from the accumulator
// goroutine, when the run completes.
func WithReportFunc(fn func(Report)) AccumulatorOption {
	return func(a *Accumulator) { a.onReport = fn }
}

// WithProgressFunc registers fn to be called, from the accumulator
// goroutine, after every partial sum is added.
func WithProgressFunc(fn func(received, expected int)) AccumulatorOption {
	return func(a *Accumulator) { a.onProgress = fn }
}

// WithClock replaces time.Now as the accumulator time source.
func WithClock(now func() time.Time) AccumulatorOption {
	return func(a *Accumulator) { a.now = now }
}

// Accumulator sums partial results and detects run completion.
//
// The run state (total, received count) is owned by the goroutine executing
// Run and is never touched by any other goroutine; workers hand partial sums
// over through Deliver.
type Accumulator struct {
	expected  int
	startTime time.Time
	mailbox   chan float64
	done      chan struct{}

	// Owned by the Run goroutine.
	total    float64
	received int

	state      atomic.Int32
	seen       atomic.Int64
	admitted   atomic.Int64
	running    atomic.Bool
	report     Report // written before done is closed
	now        func() time.Time
	onReport   func(Report)
	onProgress func(received, expected int)
}

// NewAccumulator creates an accumulator expecting exactly expected partial
// sums. The elapsed time of the run is measured from this call.
func NewAccumulator(expected int, opts ...AccumulatorOption) (*Accumulator, error) {
	if expected <= 0 {
		return nil, fmt.Errorf("leibniz: expected partial count must be positive, got %d", expected)
	}
	a := &Accumulator{
		expected: expected,
		mailbox:  make(chan float64, expected),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.startTime = a.now()
	return a, nil
}

// Deliver hands a partial sum to the accumulator. Only the first expected
// deliveries are admitted; later ones return ErrAccumulatorRetired, even if
// Run has not finished adding the admitted ones. The mailbox holds every
// admitted partial sum, so Deliver never blocks.
func (a *Accumulator) Deliver(ctx context.Context, partial float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.admitted.Add(1) > int64(a.expected) {
		return ErrAccumulatorRetired
	}
	a.mailbox <- partial
	return nil
}

// Run consumes partial sums until the expected count is reached or ctx is
// done. It returns nil on completion and ctx.Err() on cancellation.
func (a *Accumulator) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAccumulatorRunning
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v := <-a.mailbox:
			if a.add(v) {
				return nil
			}
		}
	}
}

// add applies one partial sum and performs the Completed transition when the
// expected count is reached. It reports whether the run completed.
func (a *Accumulator) add(v float64) bool {
	a.total += v
	a.received++
	a.seen.Store(int64(a.received))
	a.state.Store(int32(StateAccumulating))
	if a.onProgress != nil {
		a.onProgress(a.received, a.expected)
	}
	if a.received < a.expected {
		return false
	}

	a.report = Report{
		Pi:       a.total,
		Elapsed:  a.now().Sub(a.startTime),
		Partials: a.received,
	}
	a.state.Store(int32(StateCompleted))
	close(a.done)
	if a.onReport != nil {
		a.onReport(a.report)
	}
	return true
}

// Done returns a channel closed when the run completes.
func (a *Accumulator) Done() <-chan struct{} { return a.done }

// State returns the current lifecycle state.
func (a *Accumulator) State() State { return State(a.state.Load()) }

// Received returns the number of partial sums added so far.
func (a *Accumulator) Received() int { return int(a.seen.Load()) }

// Expected returns the number of partial sums the run waits for.
func (a *Accumulator) Expected() int { return a.expected }

// Report returns the final report and true once the run has completed.
func (a *Accumulator) Report() (Report, bool) {
	select {
	case <-a.done:
		return a.report, true
	default:
		return Report{}, false
	}
}
