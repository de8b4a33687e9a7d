package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
	"github.com/aussiebroadwan/traceline/internal/maintenance/lock"
	"github.com/aussiebroadwan/traceline/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// funcJob adapts a closure to Job and runs it through execute.
type funcJob struct {
	name  string
	audit Auditor
	calls atomic.Int32
	body  func(ctx context.Context, at time.Time) (map[string]int64, error)
}

func (j *funcJob) Name() string { return j.name }

func (j *funcJob) Run(ctx context.Context) Result {
	j.calls.Add(1)
	return execute(ctx, j.name, fixedClock(testNow), slogx.Discard(), j.audit, j.body)
}

func okJob(name string) *funcJob {
	return &funcJob{name: name, body: func(context.Context, time.Time) (map[string]int64, error) {
		return map[string]int64{"n": 1}, nil
	}}
}

type errLocker struct{ err error }

func (l errLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	return nil, false, l.err
}

func TestRunnerUnknownJob(t *testing.T) {
	r := NewRunner(nil, 0, slogx.Discard())

	res, err := r.Run(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnknownJob)
	require.Equal(t, "nope", res.Job)
	require.False(t, res.Success)
}

func TestRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, 0, nil)
	require.IsType(t, lock.Noop{}, r.Locker)
	require.Equal(t, DefaultLockTTL, r.LockTTL)
	require.NotNil(t, r.Logger)
}

func TestRunnerRegisterKeepsOrder(t *testing.T) {
	r := NewRunner(nil, 0, slogx.Discard(), okJob("b"), okJob("a"))
	r.Register(okJob("c"))
	r.Register(okJob("a")) // replaces, keeps position

	var names []string
	for _, j := range r.Jobs() {
		names = append(names, j.Name())
	}
	require.Equal(t, []string{"b", "a", "c"}, names)

	_, ok := r.Lookup("c")
	require.True(t, ok)
	_, ok = r.Lookup("z")
	require.False(t, ok)
}

func TestRunnerSkipsLockedJob(t *testing.T) {
	locker := lock.NewLocal()
	job := okJob("busy")
	r := NewRunner(locker, time.Minute, slogx.Discard(), job)

	unlock, acquired, err := locker.TryLock(context.Background(), "job:busy", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	res, err := r.Run(context.Background(), "busy")
	require.ErrorIs(t, err, ErrJobLocked)
	require.True(t, res.Skipped)
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, ErrJobLocked)
	require.Zero(t, job.calls.Load())

	unlock()

	res, err = r.Run(context.Background(), "busy")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.EqualValues(t, 1, job.calls.Load())
}

func TestRunnerReleasesLockAfterRun(t *testing.T) {
	locker := lock.NewLocal()
	r := NewRunner(locker, time.Minute, slogx.Discard(), okJob("j"))

	for range 3 {
		res, err := r.Run(context.Background(), "j")
		require.NoError(t, err)
		require.True(t, res.Success)
	}
}

func TestRunnerLockError(t *testing.T) {
	errBackend := errors.New("redis down")
	job := okJob("j")
	r := NewRunner(errLocker{err: errBackend}, time.Minute, slogx.Discard(), job)

	res, err := r.Run(context.Background(), "j")
	require.ErrorIs(t, err, errBackend)
	require.ErrorIs(t, res.Err, errBackend)
	require.False(t, res.Skipped)
	require.Zero(t, job.calls.Load())
}

func TestRunnerPanicBecomesFailure(t *testing.T) {
	auditor := &recordingAuditor{}
	job := &funcJob{name: "boom", audit: auditor, body: func(context.Context, time.Time) (map[string]int64, error) {
		panic("kaboom")
	}}
	r := NewRunner(nil, 0, slogx.Discard(), job)

	res, err := r.Run(context.Background(), "boom")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.ErrorContains(t, res.Err, "kaboom")

	require.Len(t, auditor.records, 1)
	require.Equal(t, domain.AuditFailure, auditor.records[0].Outcome)
}

func TestRunAllReturnsResultsInOrder(t *testing.T) {
	failing := &funcJob{name: "fails", body: func(context.Context, time.Time) (map[string]int64, error) {
		return nil, errInjected
	}}
	r := NewRunner(lock.NewLocal(), time.Minute, slogx.Discard(), okJob("first"), failing, okJob("last"))

	results := r.RunAll(context.Background())
	require.Len(t, results, 3)
	require.Equal(t, "first", results[0].Job)
	require.Equal(t, "fails", results[1].Job)
	require.Equal(t, "last", results[2].Job)

	require.True(t, results[0].Success)
	require.ErrorIs(t, results[1].Err, errInjected)
	require.True(t, results[2].Success)
	require.False(t, AllSucceeded(results))
}

func TestAllSucceeded(t *testing.T) {
	require.True(t, AllSucceeded(nil))
	require.True(t, AllSucceeded([]Result{{Success: true}, {Skipped: true, Err: ErrJobLocked}}))
	require.False(t, AllSucceeded([]Result{{Success: true}, {Err: errInjected}}))
}

func TestResultHelpers(t *testing.T) {
	res := Result{StartedAt: testNow, FinishedAt: testNow.Add(2 * time.Second)}
	require.Equal(t, 2*time.Second, res.Duration())
	require.Empty(t, res.Error())

	res.Err = errInjected
	require.Equal(t, errInjected.Error(), res.Error())
}

func TestRunnerRunsRealJobsAgainstStore(t *testing.T) {
	st := newTestStore(t)
	audit := newAuditSink(st)
	r := NewRunner(lock.NewLocal(), time.Minute, slogx.Discard(),
		&WhitelistJob{Store: st, Audit: audit, Logger: slogx.Discard(), Now: fixedClock(testNow)},
		&SessionJob{Store: st, Audit: audit, Logger: slogx.Discard(), Now: fixedClock(testNow)},
		&ActivityJob{Store: st, Audit: audit, Logger: slogx.Discard(), Now: fixedClock(testNow)},
		&ReportJob{Store: st, Audit: audit, Logger: slogx.Discard(), Now: fixedClock(testNow)},
	)

	results := r.RunAll(context.Background())
	require.Len(t, results, 4)
	require.True(t, AllSucceeded(results))

	for _, name := range []string{
		JobCleanupExpiredWhitelists,
		JobCleanupExpiredSessions,
		JobUpdateFactoryActiveStatus,
		JobGenerateWeeklyReport,
	} {
		require.Len(t, auditEntries(t, st, name), 1, name)
	}
}
