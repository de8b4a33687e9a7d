package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/lock"
	"golang.org/x/sync/errgroup"
)

// DefaultLockTTL bounds how long a crashed runner can block a job.
const DefaultLockTTL = 30 * time.Minute

// Runner owns the registered jobs and guards each run with a lock so that
// scheduled, HTTP and CLI triggers never overlap.
type Runner struct {
	Locker  lock.Locker
	LockTTL time.Duration
	Logger  *slog.Logger
	Now     func() time.Time

	jobs  map[string]Job
	order []string
}

func NewRunner(locker lock.Locker, ttl time.Duration, logger *slog.Logger, jobs ...Job) *Runner {
	if locker == nil {
		locker = lock.Noop{}
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		Locker:  locker,
		LockTTL: ttl,
		Logger:  logger,
		jobs:    make(map[string]Job, len(jobs)),
	}
	for _, j := range jobs {
		r.Register(j)
	}
	return r
}

// Register adds j, replacing any job with the same name.
func (r *Runner) Register(j Job) {
	if _, ok := r.jobs[j.Name()]; !ok {
		r.order = append(r.order, j.Name())
	}
	r.jobs[j.Name()] = j
}

// Jobs returns the registered jobs in registration order.
func (r *Runner) Jobs() []Job {
	out := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.jobs[name])
	}
	return out
}

func (r *Runner) Lookup(name string) (Job, bool) {
	j, ok := r.jobs[name]
	return j, ok
}

// Run executes the named job. It returns ErrUnknownJob for unregistered
// names and ErrJobLocked, with a skipped Result, when another run holds the
// job's lock. Job failures are reported in the Result, not the error.
func (r *Runner) Run(ctx context.Context, name string) (Result, error) {
	j, ok := r.jobs[name]
	if !ok {
		return Result{Job: name}, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}

	unlock, acquired, err := r.Locker.TryLock(ctx, "job:"+name, r.LockTTL)
	if err != nil {
		now := clock(r.Now)
		res := Result{
			Job:        name,
			Err:        fmt.Errorf("acquire lock: %w", err),
			StartedAt:  now,
			FinishedAt: now,
		}
		r.Logger.Error("failed to acquire job lock", "job", name, "error", err)
		return res, res.Err
	}
	if !acquired {
		now := clock(r.Now)
		r.Logger.Info("job skipped, already running elsewhere", "job", name)
		return Result{
			Job:        name,
			Skipped:    true,
			Err:        ErrJobLocked,
			StartedAt:  now,
			FinishedAt: now,
		}, ErrJobLocked
	}
	defer unlock()

	return j.Run(ctx), nil
}

// RunAll executes every registered job concurrently and returns their
// results in registration order.
func (r *Runner) RunAll(ctx context.Context) []Result {
	results := make([]Result, len(r.order))

	var g errgroup.Group
	for i, name := range r.order {
		g.Go(func() error {
			// Errors are already captured in the Result.
			results[i], _ = r.Run(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// AllSucceeded reports whether every result succeeded or was skipped.
func AllSucceeded(results []Result) bool {
	for _, res := range results {
		if !res.Success && !res.Skipped {
			return false
		}
	}
	return true
}
