// Package scheduler regenerates every product page on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
)

// LockFileName is created at the site root and held for the length of a run.
const LockFileName = ".regenerate.lock"

var ErrCronRequired = errors.New("cron expression is required")

// PageGenerator is the part of the product service a regeneration run needs.
type PageGenerator interface {
	GenerateAll(ctx context.Context) (int, error)
}

type Regenerator struct {
	spec    string
	pages   PageGenerator
	lock    *flock.Flock
	timeout time.Duration
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewRegenerator validates spec, a standard 5-field cron expression or descriptor,
// and returns a stopped Regenerator. timeout bounds a single run; zero means none.
func NewRegenerator(logger *slog.Logger, pages PageGenerator, spec, lockPath string, timeout time.Duration) (*Regenerator, error) {
	if spec == "" {
		return nil, ErrCronRequired
	}

	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	return &Regenerator{
		spec:    spec,
		pages:   pages,
		lock:    flock.New(lockPath),
		timeout: timeout,
		logger: logger.With(
			"module", "regenerator",
			"cron", spec,
		),
	}, nil
}

// RunOnce regenerates all pages unless another process holds the lock, in which case
// it returns false without doing anything.
func (r *Regenerator) RunOnce(ctx context.Context) (bool, error) {
	err := os.MkdirAll(filepath.Dir(r.lock.Path()), 0o755)
	if err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	locked, err := r.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}

	if !locked {
		r.logger.WarnContext(ctx, "regeneration already running elsewhere, skipping", "lock", r.lock.Path())

		return false, nil
	}

	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.ErrorContext(ctx, "failed to release lock", "error", err)
		}
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	started := time.Now()
	generated, err := r.pages.GenerateAll(ctx)

	r.logger.InfoContext(ctx, "regeneration finished",
		"generated", generated,
		"duration", time.Since(started),
		"failed", err != nil,
	)

	return true, err
}

// Start schedules RunOnce. Runs use ctx and never overlap within this process.
func (r *Regenerator) Start(ctx context.Context) error {
	r.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := r.cron.AddFunc(r.spec, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.ErrorContext(ctx, "regeneration failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add regeneration job: %w", err)
	}

	r.logger.InfoContext(ctx, "starting regenerator", "entry", id)
	r.cron.Start()

	return nil
}

// Stop stops scheduling and waits for a running job until ctx is done.
func (r *Regenerator) Stop(ctx context.Context) error {
	if r.cron == nil {
		return nil
	}

	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
