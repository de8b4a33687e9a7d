package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
)

type invitationsRepo struct {
	db dbtx
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	status := inv.Status
	if status == "" {
		status = domain.InvitationPending
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	updated := inv.UpdatedAt
	if updated.IsZero() {
		updated = inv.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (id, organization_id, added_by, phone_number, status, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.OrganizationID, inv.AddedBy, inv.PhoneNumber, string(status),
		toMillis(inv.ExpiresAt), toMillis(inv.CreatedAt), toMillis(updated),
	)
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	var (
		inv                             domain.Invitation
		status                          string
		expiresAt, createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organization_id, added_by, phone_number, status, expires_at, created_at, updated_at
		FROM invitations WHERE id = ?`, id,
	).Scan(&inv.ID, &inv.OrganizationID, &inv.AddedBy, &inv.PhoneNumber, &status, &expiresAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	inv.Status = domain.InvitationStatus(status)
	inv.ExpiresAt = fromMillis(expiresAt)
	inv.CreatedAt = fromMillis(createdAt)
	inv.UpdatedAt = fromMillis(updatedAt)
	return inv, nil
}

func (r *invitationsRepo) MarkInvitationUsed(ctx context.Context, id string, now time.Time) error {
	n, err := rowsAffected(r.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'USED', updated_at = ?
		WHERE id = ? AND status = 'PENDING'`,
		toMillis(now), id,
	))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitationsRepo) ExpirePendingInvitations(ctx context.Context, now time.Time) (int64, error) {
	ms := toMillis(now)
	return rowsAffected(r.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'EXPIRED', updated_at = ?
		WHERE status = 'PENDING' AND expires_at < ?`,
		ms, ms,
	))
}

func (r *invitationsRepo) PurgeExpiredInvitations(ctx context.Context, before time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `
		DELETE FROM invitations WHERE status = 'EXPIRED' AND expires_at < ?`,
		toMillis(before),
	))
}

func (r *invitationsRepo) CountInvitationsCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return countBetween(ctx, r.db, "invitations", from, to)
}

func (r *invitationsRepo) CountInvitationsByStatus(ctx context.Context, status domain.InvitationStatus) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invitations WHERE status = ?`, string(status)).Scan(&n)
	return n, err
}

// countBetween counts rows of table with from <= created_at < to. table is
// always a constant from this package.
func countBetween(ctx context.Context, db dbtx, table string, from, to time.Time) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE created_at >= ? AND created_at < ?`,
		toMillis(from), toMillis(to),
	).Scan(&n)
	return n, err
}
