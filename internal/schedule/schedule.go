// Package schedule runs a job on a fixed interval, one run at a time.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joshsymonds/labelfwd/internal/lock"
)

// Job is one forwarding pass.
type Job func(ctx context.Context) error

// Runner invokes a Job under an optional file lock.
type Runner struct {
	Interval time.Duration
	LockPath string
	Logger   *slog.Logger
}

// NewRunner constructs a Runner with sane defaults.
func NewRunner(interval time.Duration, lockPath string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Runner{Interval: interval, LockPath: lockPath, Logger: logger}
}

// Once runs job a single time. A run already holding the lock is not an
// error: the call is skipped and reported as such.
func (r *Runner) Once(ctx context.Context, job Job) (ran bool, err error) {
	if r.LockPath == "" {
		return true, job(ctx)
	}
	err = lock.WithExclusiveFileLock(r.LockPath, func() error {
		ran = true
		return job(ctx)
	})
	if errors.Is(err, lock.ErrLocked) {
		r.Logger.InfoContext(ctx, "another run holds the lock; skipping", "lock", r.LockPath)
		return false, nil
	}
	return ran, err
}

// Loop runs job immediately and then every Interval until ctx is done. Run
// errors are logged and the loop waits for the next tick.
func (r *Runner) Loop(ctx context.Context, job Job) error {
	if r.Interval <= 0 {
		return errors.New("schedule interval must be positive")
	}
	r.Logger.InfoContext(ctx, "starting schedule", slog.Duration("every", r.Interval))

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			r.Logger.InfoContext(ctx, "schedule stopped")
			return nil
		}
		if _, err := r.Once(ctx, job); err != nil {
			r.Logger.ErrorContext(ctx, "scheduled run failed", "error", err)
		}
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}
