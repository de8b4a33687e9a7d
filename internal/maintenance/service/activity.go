package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
)

// DefaultActivityWindow is the trailing period in which a member login keeps
// an organization active.
const DefaultActivityWindow = 15 * 24 * time.Hour

// ActivityJob recomputes each organization's active flag from recent logins.
type ActivityJob struct {
	Store  store.Store
	Audit  Auditor
	Logger *slog.Logger
	Window time.Duration
	Now    func() time.Time
}

func (j *ActivityJob) Name() string { return JobUpdateFactoryActiveStatus }

func (j *ActivityJob) Run(ctx context.Context) Result { return j.UpdateFactoryActiveStatus(ctx) }

// UpdateFactoryActiveStatus sets is_active to whether any member logged in at
// or after now - window. Only organizations whose flag changes are written,
// so updated_at is bumped on those alone.
func (j *ActivityJob) UpdateFactoryActiveStatus(ctx context.Context) Result {
	window := j.Window
	if window <= 0 {
		window = DefaultActivityWindow
	}

	return execute(ctx, j.Name(), j.Now, j.Logger, j.Audit,
		func(ctx context.Context, now time.Time) (map[string]int64, error) {
			var evaluated, activated, deactivated int64
			err := j.Store.WithTx(ctx, func(tx store.Tx) error {
				acts, err := tx.Organizations().ListOrganizationActivity(ctx, now.Add(-window))
				if err != nil {
					return fmt.Errorf("list organization activity: %w", err)
				}
				evaluated = int64(len(acts))

				for _, a := range acts {
					if !a.NeedsUpdate() {
						continue
					}
					changed, err := tx.Organizations().SetOrganizationActive(ctx, a.OrganizationID, a.HasRecentLogin, now)
					if err != nil {
						return fmt.Errorf("update organization %s: %w", a.OrganizationID, err)
					}
					if !changed {
						continue
					}
					if a.HasRecentLogin {
						activated++
					} else {
						deactivated++
					}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			return map[string]int64{
				"evaluated":   evaluated,
				"activated":   activated,
				"deactivated": deactivated,
			}, nil
		})
}
