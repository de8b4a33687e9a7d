package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
)

// SessionJob reaps sessions whose expiry has passed.
type SessionJob struct {
	Store  store.Store
	Audit  Auditor
	Logger *slog.Logger
	Now    func() time.Time
}

func (j *SessionJob) Name() string { return JobCleanupExpiredSessions }

func (j *SessionJob) Run(ctx context.Context) Result { return j.CleanupExpiredSessions(ctx) }

// CleanupExpiredSessions deletes every session with expires_at < now.
func (j *SessionJob) CleanupExpiredSessions(ctx context.Context) Result {
	return execute(ctx, j.Name(), j.Now, j.Logger, j.Audit,
		func(ctx context.Context, now time.Time) (map[string]int64, error) {
			var deleted int64
			err := j.Store.WithTx(ctx, func(tx store.Tx) error {
				var err error
				if deleted, err = tx.Sessions().DeleteExpiredSessions(ctx, now); err != nil {
					return fmt.Errorf("delete expired sessions: %w", err)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			return map[string]int64{"deleted": deleted}, nil
		})
}
