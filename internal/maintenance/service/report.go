package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
	"github.com/aussiebroadwan/traceline/internal/maintenance/report"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
)

// DefaultReportWindow is the period covered by the weekly report.
const DefaultReportWindow = 7 * 24 * time.Hour

// ReportJob counts records created during the trailing window and hands the
// summary to Sink.
type ReportJob struct {
	Store  store.Store
	Audit  Auditor
	Logger *slog.Logger
	Sink   report.Sink
	Window time.Duration
	Now    func() time.Time
}

func (j *ReportJob) Name() string { return JobGenerateWeeklyReport }

func (j *ReportJob) Run(ctx context.Context) Result { return j.GenerateWeeklyReport(ctx) }

// GenerateWeeklyReport counts new organizations, users, invitations and
// sessions with created_at in [now - window, now). A negative count fails the
// job. A delivery failure fails the job but the counts are kept in Stats.
func (j *ReportJob) GenerateWeeklyReport(ctx context.Context) Result {
	window := j.Window
	if window <= 0 {
		window = DefaultReportWindow
	}

	return execute(ctx, j.Name(), j.Now, j.Logger, j.Audit,
		func(ctx context.Context, now time.Time) (map[string]int64, error) {
			rep := domain.WeeklyReport{From: now.Add(-window), To: now, GeneratedAt: now}

			err := j.Store.WithTx(ctx, func(tx store.Tx) error {
				var err error
				if rep.NewOrganizations, err = tx.Organizations().CountOrganizationsCreatedBetween(ctx, rep.From, rep.To); err != nil {
					return fmt.Errorf("count organizations: %w", err)
				}
				if rep.NewUsers, err = tx.Users().CountUsersCreatedBetween(ctx, rep.From, rep.To); err != nil {
					return fmt.Errorf("count users: %w", err)
				}
				if rep.NewInvitations, err = tx.Invitations().CountInvitationsCreatedBetween(ctx, rep.From, rep.To); err != nil {
					return fmt.Errorf("count invitations: %w", err)
				}
				if rep.NewSessions, err = tx.Sessions().CountSessionsCreatedBetween(ctx, rep.From, rep.To); err != nil {
					return fmt.Errorf("count sessions: %w", err)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}

			if err := rep.Validate(); err != nil {
				return nil, fmt.Errorf("invalid weekly report: %w", err)
			}

			stats := rep.Stats()
			if j.Sink != nil {
				if err := j.Sink.Publish(ctx, rep); err != nil {
					return stats, fmt.Errorf("deliver weekly report: %w", err)
				}
			}
			return stats, nil
		})
}
