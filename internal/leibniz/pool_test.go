package leibniz

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/picalc/internal/errors"
)

// recordingSink collects delivered partial sums.
type recordingSink struct {
	mu       sync.Mutex
	partials []float64
}

func (s *recordingSink) Deliver(_ context.Context, partial float64) error {
	s.mu.Lock()
	s.partials = append(s.partials, partial)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) snapshot() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.partials...)
}

func TestNewPool_InvalidArguments(t *testing.T) {
	t.Parallel()
	_, err := NewPool(0, &recordingSink{})
	assert.Error(t, err)
	_, err = NewPool(2, nil)
	assert.Error(t, err)
}

func TestPool_RoundRobinAssignment(t *testing.T) {
	t.Parallel()
	const workers = 4
	var mu sync.Mutex
	assigned := make(map[Job]int)

	sink := &recordingSink{}
	pool, err := NewPool(workers, sink,
		WithMailboxCapacity(8),
		WithJobObserver(func(worker int, job Job, _ float64, _ time.Duration) {
			mu.Lock()
			assigned[job] = worker
			mu.Unlock()
		}))
	require.NoError(t, err)
	require.Equal(t, workers, pool.Size())

	ctx := context.Background()
	require.NoError(t, pool.Start(ctx))
	jobs := Split(1000, 12)
	for _, job := range jobs {
		require.NoError(t, pool.Submit(ctx, job))
	}
	require.NoError(t, pool.Close())

	mu.Lock()
	defer mu.Unlock()
	for i, job := range jobs {
		assert.Equal(t, i%workers, assigned[job], "job %d (%v)", i, job)
	}
	assert.Len(t, sink.snapshot(), len(jobs), "exactly one partial sum per job")
}

func TestPool_EmitsPartialSums(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	pool, err := NewPool(3, sink)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, pool.Start(ctx))
	for _, job := range Split(30_000, 3) {
		require.NoError(t, pool.Submit(ctx, job))
	}
	require.NoError(t, pool.Close())

	var pi float64
	for _, p := range sink.snapshot() {
		pi += p
	}
	assert.InDelta(t, math.Pi, pi, 1e-3)
}

func TestPool_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("submit before start", func(t *testing.T) {
		t.Parallel()
		pool, err := NewPool(1, &recordingSink{})
		require.NoError(t, err)
		assert.ErrorIs(t, pool.Submit(ctx, Job{0, 1}), ErrPoolNotStarted)
	})

	t.Run("close before start", func(t *testing.T) {
		t.Parallel()
		pool, err := NewPool(1, &recordingSink{})
		require.NoError(t, err)
		assert.NoError(t, pool.Close())
		assert.ErrorIs(t, pool.Start(ctx), ErrPoolClosed)
	})

	t.Run("submit after close", func(t *testing.T) {
		t.Parallel()
		pool, err := NewPool(2, &recordingSink{})
		require.NoError(t, err)
		require.NoError(t, pool.Start(ctx))
		require.NoError(t, pool.Close())
		assert.ErrorIs(t, pool.Submit(ctx, Job{0, 1}), ErrPoolClosed)
		assert.NoError(t, pool.Close(), "second Close is a no-op")
	})
}

func TestPool_WorkerPanicBecomesCalculationError(t *testing.T) {
	t.Parallel()
	pool, err := NewPool(2, &recordingSink{}, withSumFunc(func(_ context.Context, job Job) (float64, error) {
		if job.Start == 0 {
			panic("boom")
		}
		return PartialSum(job), nil
	}))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, pool.Start(ctx))
	for _, job := range Split(100, 2) {
		_ = pool.Submit(ctx, job)
	}
	err = pool.Close()
	require.Error(t, err)

	var calcErr apperrors.CalculationError
	require.True(t, errors.As(err, &calcErr), "expected CalculationError, got %T", err)
	assert.Contains(t, err.Error(), "boom")
}

func TestPool_CancellationStopsWorkers(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	pool, err := NewPool(2, sink)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, pool.Start(ctx))
	cancel()
	for _, job := range Split(1<<30, 2) {
		_ = pool.Submit(context.Background(), job)
	}

	done := make(chan error, 1)
	go func() { done <- pool.Close() }()
	select {
	case err := <-done:
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("pool did not stop after cancellation")
	}
}

// TestPoolAndAccumulator_EndToEnd wires the pool to a real accumulator.
func TestPoolAndAccumulator_EndToEnd(t *testing.T) {
	t.Parallel()
	opts := Options{TotalLength: 10_000, Workers: 4}
	require.NoError(t, opts.Validate())

	jobs := Split(opts.TotalLength, opts.Workers)
	acc, err := NewAccumulator(len(jobs))
	require.NoError(t, err)
	pool, err := NewPool(opts.Workers, acc, opts.PoolOptions()...)
	require.NoError(t, err)

	ctx := context.Background()
	accErr := make(chan error, 1)
	go func() { accErr <- acc.Run(ctx) }()

	require.NoError(t, pool.Start(ctx))
	for _, job := range jobs {
		require.NoError(t, pool.Submit(ctx, job))
	}
	require.NoError(t, pool.Close())
	require.NoError(t, <-accErr)

	<-acc.Done()
	report, ok := acc.Report()
	require.True(t, ok)
	assert.Equal(t, len(jobs), report.Partials)
	assert.InDelta(t, math.Pi, report.Pi, 1e-2)
}

// Empty jobs still emit a zero partial sum that counts toward completion.
func TestPoolAndAccumulator_MoreWorkersThanTerms(t *testing.T) {
	t.Parallel()
	opts := Options{TotalLength: 3, Workers: 5}
	require.NoError(t, opts.Validate())

	jobs := Split(opts.TotalLength, opts.Workers)
	require.Len(t, jobs, 5)
	acc, err := NewAccumulator(len(jobs))
	require.NoError(t, err)
	pool, err := NewPool(opts.Workers, acc, opts.PoolOptions()...)
	require.NoError(t, err)

	ctx := context.Background()
	accErr := make(chan error, 1)
	go func() { accErr <- acc.Run(ctx) }()

	require.NoError(t, pool.Start(ctx))
	for _, job := range jobs {
		require.NoError(t, pool.Submit(ctx, job))
	}
	require.NoError(t, pool.Close())
	require.NoError(t, <-accErr)

	report, ok := acc.Report()
	require.True(t, ok)
	assert.Equal(t, 5, report.Partials)
	assert.InDelta(t, 4.0-4.0/3+4.0/5, report.Pi, 1e-15)
}

func TestPoolAndAccumulator_ReferenceRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 800M-term run in short mode")
	}
	t.Parallel()
	opts := Options{TotalLength: 800_000_000, Workers: 8}

	jobs := Split(opts.TotalLength, opts.Workers)
	acc, err := NewAccumulator(len(jobs))
	require.NoError(t, err)
	pool, err := NewPool(opts.Workers, acc, opts.PoolOptions()...)
	require.NoError(t, err)

	ctx := context.Background()
	accErr := make(chan error, 1)
	go func() { accErr <- acc.Run(ctx) }()

	require.NoError(t, pool.Start(ctx))
	for _, job := range jobs {
		require.NoError(t, pool.Submit(ctx, job))
	}
	require.NoError(t, pool.Close())
	require.NoError(t, <-accErr)

	report, ok := acc.Report()
	require.True(t, ok)
	assert.Equal(t, 8, report.Partials)
	assert.InDelta(t, math.Pi, report.Pi, 1e-7)
	assert.Positive(t, report.Elapsed)
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"valid", Options{TotalLength: 10, Workers: 3}, false},
		{"valid with mailbox", Options{TotalLength: 10, Workers: 3, MailboxCapacity: 4}, false},
		{"zero length", Options{TotalLength: 0, Workers: 1}, true},
		{"negative length", Options{TotalLength: -1, Workers: 1}, true},
		{"zero workers", Options{TotalLength: 10, Workers: 0}, true},
		{"workers exceed length", Options{TotalLength: 2, Workers: 3}, false},
		{"negative mailbox", Options{TotalLength: 10, Workers: 1, MailboxCapacity: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr apperrors.ConfigError
			assert.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
		})
	}
}
