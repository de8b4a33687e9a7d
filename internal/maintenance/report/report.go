// Package report delivers weekly summaries produced by the report job.
package report

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
)

// Sink receives a generated weekly report.
type Sink interface {
	Publish(ctx context.Context, r domain.WeeklyReport) error
}

// LogSink writes the report as a structured log line.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Publish(_ context.Context, r domain.WeeklyReport) error {
	s.Logger.Info("weekly report",
		"from", r.From,
		"to", r.To,
		"new_organizations", r.NewOrganizations,
		"new_users", r.NewUsers,
		"new_invitations", r.NewInvitations,
		"new_sessions", r.NewSessions,
	)
	return nil
}

// Multi fans a report out to every sink. All sinks are attempted; their
// errors are joined.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, r domain.WeeklyReport) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
