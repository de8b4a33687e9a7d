package postgres

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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inv.ID, inv.OrganizationID, inv.AddedBy, inv.PhoneNumber, string(status),
		inv.ExpiresAt.UTC(), inv.CreatedAt.UTC(), updated.UTC(),
	)
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	var (
		inv    domain.Invitation
		status string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organization_id, added_by, phone_number, status, expires_at, created_at, updated_at
		FROM invitations WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.OrganizationID, &inv.AddedBy, &inv.PhoneNumber, &status,
		&inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	inv.Status = domain.InvitationStatus(status)
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	return inv, nil
}

func (r *invitationsRepo) MarkInvitationUsed(ctx context.Context, id string, now time.Time) error {
	n, err := rowsAffected(r.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'USED', updated_at = $1
		WHERE id = $2 AND status = 'PENDING'`,
		now.UTC(), id,
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
	return rowsAffected(r.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'EXPIRED', updated_at = $1
		WHERE status = 'PENDING' AND expires_at < $1`,
		now.UTC(),
	))
}

func (r *invitationsRepo) PurgeExpiredInvitations(ctx context.Context, before time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx,
		`DELETE FROM invitations WHERE status = 'EXPIRED' AND expires_at < $1`,
		before.UTC(),
	))
}

func (r *invitationsRepo) CountInvitationsCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return countBetween(ctx, r.db, "invitations", from, to)
}

func (r *invitationsRepo) CountInvitationsByStatus(ctx context.Context, status domain.InvitationStatus) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invitations WHERE status = $1`, string(status)).Scan(&n)
	return n, err
}
