package leibniz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/picalc/internal/errors"
)

var (
	// ErrPoolNotStarted is returned by Submit before Start.
	ErrPoolNotStarted = errors.New("leibniz: pool not started")
	// ErrPoolClosed is returned by Start and Submit after Close.
	ErrPoolClosed = errors.New("leibniz: pool closed")
)

// JobObserver is notified after a worker has computed a job, before the
// partial sum is delivered.
type JobObserver func(worker int, job Job, partial float64, took time.Duration)

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithMailboxCapacity sets the queue depth of every worker mailbox.
// Values below 1 are ignored.
func WithMailboxCapacity(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.capacity = n
		}
	}
}

// WithJobObserver registers fn, called from the worker goroutines.
func WithJobObserver(fn JobObserver) PoolOption {
	return func(p *Pool) { p.observer = fn }
}

// withSumFunc replaces the series summation (tests only).
func withSumFunc(fn func(context.Context, Job) (float64, error)) PoolOption {
	return func(p *Pool) { p.sum = fn }
}

// Pool is a fixed set of worker goroutines. Jobs are assigned to workers in
// round-robin order; each worker owns a mailbox and processes one job at a
// time, emitting exactly one partial sum per job to the sink.
type Pool struct {
	size     int
	capacity int
	sink     ResultSink
	observer JobObserver
	sum      func(context.Context, Job) (float64, error)

	mu        sync.Mutex
	mailboxes []chan Job
	next      int
	started   bool
	closed    bool
	ctx       context.Context
	g         *errgroup.Group
}

// NewPool creates a pool of size workers emitting partial sums to sink.
func NewPool(size int, sink ResultSink, opts ...PoolOption) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("leibniz: pool size must be positive, got %d", size)
	}
	if sink == nil {
		return nil, errors.New("leibniz: nil result sink")
	}
	p := &Pool{
		size:     size,
		capacity: DefaultMailboxCapacity,
		sink:     sink,
		sum:      PartialSumContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Start launches the worker goroutines. The workers stop when their mailbox
// is closed by Close, when ctx is done, or after the first worker failure.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		return ErrPoolClosed
	case p.started:
		return nil
	}

	p.g, p.ctx = errgroup.WithContext(ctx)
	p.mailboxes = make([]chan Job, p.size)
	for i := range p.mailboxes {
		mailbox := make(chan Job, p.capacity)
		p.mailboxes[i] = mailbox
		id := i
		p.g.Go(func() error {
			return p.work(p.ctx, id, mailbox)
		})
	}
	p.started = true
	return nil
}

// Submit assigns job to the next worker in round-robin order. It blocks only
// while that worker's mailbox is full.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		return ErrPoolClosed
	case !p.started:
		return ErrPoolNotStarted
	}

	mailbox := p.mailboxes[p.next]
	p.next = (p.next + 1) % p.size

	select {
	case mailbox <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Close stops accepting jobs, lets the workers drain their mailboxes and
// returns the first worker error, if any.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	for _, mailbox := range p.mailboxes {
		close(mailbox)
	}
	g := p.g
	p.mu.Unlock()
	return g.Wait()
}

func (p *Pool) work(ctx context.Context, id int, mailbox <-chan Job) error {
	for job := range mailbox {
		if err := p.process(ctx, id, job); err != nil {
			return err
		}
	}
	return nil
}

// process computes a single job and emits its partial sum. A panic in the
// computation is turned into a CalculationError so the run fails instead of
// waiting forever for the missing partial sum.
func (p *Pool) process(ctx context.Context, id int, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.CalculationError{
				Cause: fmt.Errorf("worker %d: job %s: panic: %v", id, job, r),
			}
		}
	}()

	start := time.Now()
	partial, err := p.sum(ctx, job)
	if err != nil {
		return err
	}
	if p.observer != nil {
		p.observer(id, job, partial, time.Since(start))
	}
	return p.sink.Deliver(ctx, partial)
}
