package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/lock"
	"github.com/aussiebroadwan/traceline/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsImmediatelyAndStops(t *testing.T) {
	job := okJob("tick")
	r := NewRunner(lock.NewLocal(), time.Minute, slogx.Discard(), job)

	s := NewScheduler(r, slogx.Discard(), Schedule{Job: "tick", Interval: time.Hour})
	s.Start()

	require.Eventually(t, func() bool { return job.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop() // idempotent
	require.EqualValues(t, 1, job.calls.Load())
}

func TestSchedulerTicksRepeatedly(t *testing.T) {
	job := okJob("fast")
	r := NewRunner(nil, 0, slogx.Discard(), job)

	s := NewScheduler(r, slogx.Discard(), Schedule{Job: "fast", Interval: 10 * time.Millisecond})
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return job.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerSkipsInvalidSchedules(t *testing.T) {
	job := okJob("known")
	r := NewRunner(nil, 0, slogx.Discard(), job)
	logger, buf := bufferLogger()

	s := NewScheduler(r, logger,
		Schedule{Job: "known", Interval: 0},
		Schedule{Job: "missing", Interval: time.Hour},
	)
	s.Start()
	s.Stop()

	require.Zero(t, job.calls.Load())
	require.Contains(t, buf.String(), "schedule disabled")
	require.Contains(t, buf.String(), "schedule references unknown job")
}

func TestSchedulerStopWaitsForRunningJob(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})

	job := &funcJob{name: "slow", body: func(context.Context, time.Time) (map[string]int64, error) {
		close(started)
		<-release
		close(finished)
		return nil, nil
	}}
	r := NewRunner(nil, 0, slogx.Discard(), job)

	s := NewScheduler(r, slogx.Discard(), Schedule{Job: "slow", Interval: time.Hour})
	s.Start()
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a job was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopped

	select {
	case <-finished:
	default:
		t.Fatal("job did not finish before Stop returned")
	}
}
