package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Schedule pairs a job name with how often it runs.
type Schedule struct {
	Job      string
	Interval time.Duration
}

// Scheduler periodically triggers jobs through a Runner. Each schedule gets
// its own ticker and runs once immediately on start.
type Scheduler struct {
	Runner    *Runner
	Logger    *slog.Logger
	Schedules []Schedule

	// JobTimeout bounds a single run. Defaults to the schedule interval.
	JobTimeout time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewScheduler(runner *Runner, logger *slog.Logger, schedules ...Schedule) *Scheduler {
	return &Scheduler{
		Runner:    runner,
		Logger:    logger,
		Schedules: schedules,
		stopCh:    make(chan struct{}),
	}
}

// Start launches one worker per schedule. Non-blocking.
func (s *Scheduler) Start() {
	for _, sc := range s.Schedules {
		if sc.Interval <= 0 {
			s.Logger.Warn("schedule disabled, interval not positive", "job", sc.Job)
			continue
		}
		if _, ok := s.Runner.Lookup(sc.Job); !ok {
			s.Logger.Error("schedule references unknown job", "job", sc.Job)
			continue
		}
		s.wg.Add(1)
		go s.run(sc)
		s.Logger.Info("job scheduled", "job", sc.Job, "interval", sc.Interval)
	}
	s.Logger.Info("scheduler started", "schedules", len(s.Schedules))
}

// Stop signals all workers and blocks until in-progress runs finish.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.Logger.Info("scheduler stopped")
}

func (s *Scheduler) run(sc Schedule) {
	defer s.wg.Done()

	ticker := time.NewTicker(sc.Interval)
	defer ticker.Stop()

	s.tick(sc)

	for {
		select {
		case <-ticker.C:
			s.tick(sc)
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) tick(sc Schedule) {
	timeout := s.JobTimeout
	if timeout <= 0 {
		timeout = sc.Interval
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Failures are logged and audited by the job itself.
	_, _ = s.Runner.Run(ctx, sc.Job)
}
