package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
)

// Job names double as audit actions.
const (
	JobCleanupExpiredWhitelists  = "cleanup_expired_whitelists"
	JobCleanupExpiredSessions    = "cleanup_expired_sessions"
	JobUpdateFactoryActiveStatus = "update_factory_active_status"
	JobGenerateWeeklyReport      = "generate_weekly_report"
)

var (
	ErrUnknownJob = errors.New("unknown job")
	ErrJobLocked  = errors.New("job is already running")

	// ErrNegativeCount marks a report whose counts cannot be trusted.
	ErrNegativeCount = domain.ErrNegativeCount
)

// Job is a zero-argument maintenance task.
type Job interface {
	Name() string
	Run(ctx context.Context) Result
}

// Result describes one job invocation. Jobs report failures here instead of
// returning errors.
type Result struct {
	Job        string
	Success    bool
	Skipped    bool
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      map[string]int64
}

func (r Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Error returns the failure message or "".
func (r Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

// execute runs body, converts panics to failures, records exactly one audit
// entry and logs the outcome.
func execute(
	ctx context.Context,
	name string,
	now func() time.Time,
	logger *slog.Logger,
	audit Auditor,
	body func(ctx context.Context, at time.Time) (map[string]int64, error),
) (res Result) {
	if logger == nil {
		logger = slog.Default()
	}
	started := clock(now)
	res = Result{Job: name, StartedAt: started}

	stats, err := func() (stats map[string]int64, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		return body(ctx, started)
	}()

	res.Stats = stats
	res.Err = err
	res.Success = err == nil
	res.FinishedAt = clock(now)

	outcome := domain.AuditSuccess
	if err != nil {
		outcome = domain.AuditFailure
	}
	if audit != nil {
		audit.Record(ctx, name, outcome, err, statsMetadata(stats))
	}

	if err != nil {
		logger.Error("maintenance job failed", "job", name, "error", err, "duration", res.Duration())
	} else {
		logger.Info("maintenance job completed", "job", name, "stats", stats, "duration", res.Duration())
	}
	return res
}

func statsMetadata(stats map[string]int64) map[string]any {
	if len(stats) == 0 {
		return nil
	}
	m := make(map[string]any, len(stats))
	for k, v := range stats {
		m[k] = v
	}
	return m
}
