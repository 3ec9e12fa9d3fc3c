package leibniz

import (
	apperrors "github.com/agbru/picalc/internal/errors"
)

// DefaultMailboxCapacity is the per-worker queue depth used when
// Options.MailboxCapacity is zero.
const DefaultMailboxCapacity = 1

// Options holds the parameters of a single run.
type Options struct {
	// TotalLength is the number of series terms to sum.
	TotalLength int64
	// Workers is the size of the worker pool and the number of jobs.
	Workers int
	// MailboxCapacity is the queue depth of each worker mailbox.
	// Zero selects DefaultMailboxCapacity.
	MailboxCapacity int
}

// Validate reports the first invalid field as an apperrors.ConfigError.
func (o Options) Validate() error {
	switch {
	case o.TotalLength <= 0:
		return apperrors.NewConfigError("length must be positive, got %d", o.TotalLength)
	case o.Workers <= 0:
		return apperrors.NewConfigError("workers must be positive, got %d", o.Workers)
	case o.MailboxCapacity < 0:
		return apperrors.NewConfigError("mailbox capacity cannot be negative, got %d", o.MailboxCapacity)
	}
	return nil
}

// mailboxCapacity returns the effective mailbox capacity.
func (o Options) mailboxCapacity() int {
	if o.MailboxCapacity == 0 {
		return DefaultMailboxCapacity
	}
	return o.MailboxCapacity
}

// PoolOptions returns the pool options matching o.
func (o Options) PoolOptions() []PoolOption {
	return []PoolOption{WithMailboxCapacity(o.mailboxCapacity())}
}
