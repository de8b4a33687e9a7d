package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
)

// DefaultWhitelistRetention is how long EXPIRED invitations are kept.
const DefaultWhitelistRetention = 30 * 24 * time.Hour

// WhitelistJob expires overdue PENDING invitations and purges EXPIRED ones
// past the retention period.
type WhitelistJob struct {
	Store     store.Store
	Audit     Auditor
	Logger    *slog.Logger
	Retention time.Duration
	Now       func() time.Time
}

func (j *WhitelistJob) Name() string { return JobCleanupExpiredWhitelists }

func (j *WhitelistJob) Run(ctx context.Context) Result { return j.CleanupExpiredWhitelists(ctx) }

// CleanupExpiredWhitelists runs both steps in one transaction: PENDING rows
// with expires_at < now become EXPIRED, then EXPIRED rows with
// expires_at < now - retention are deleted.
func (j *WhitelistJob) CleanupExpiredWhitelists(ctx context.Context) Result {
	retention := j.Retention
	if retention <= 0 {
		retention = DefaultWhitelistRetention
	}

	return execute(ctx, j.Name(), j.Now, j.Logger, j.Audit,
		func(ctx context.Context, now time.Time) (map[string]int64, error) {
			var expired, purged int64
			err := j.Store.WithTx(ctx, func(tx store.Tx) error {
				var err error
				if expired, err = tx.Invitations().ExpirePendingInvitations(ctx, now); err != nil {
					return fmt.Errorf("expire pending invitations: %w", err)
				}
				if purged, err = tx.Invitations().PurgeExpiredInvitations(ctx, now.Add(-retention)); err != nil {
					return fmt.Errorf("purge expired invitations: %w", err)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			return map[string]int64{"expired": expired, "purged": purged}, nil
		})
}
