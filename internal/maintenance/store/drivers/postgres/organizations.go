package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
)

type organizationsRepo struct {
	db dbtx
}

func (r *organizationsRepo) CreateOrganization(ctx context.Context, o domain.Organization) error {
	updated := o.UpdatedAt
	if updated.IsZero() {
		updated = o.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.Name, o.IsActive, o.CreatedAt.UTC(), updated.UTC(),
	)
	return mapConstraint(err)
}

func (r *organizationsRepo) GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error) {
	var o domain.Organization
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, is_active, created_at, updated_at
		FROM organizations WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Organization{}, mapNotFound(err)
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return o, nil
}

func (r *organizationsRepo) ListOrganizationActivity(
	ctx context.Context,
	since time.Time,
) ([]domain.OrganizationActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.is_active,
		       EXISTS (
		           SELECT 1 FROM users u
		           WHERE u.organization_id = o.id
		             AND u.last_login_at IS NOT NULL
		             AND u.last_login_at >= $1
		       )
		FROM organizations o
		ORDER BY o.id`,
		since.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OrganizationActivity
	for rows.Next() {
		var a domain.OrganizationActivity
		if err := rows.Scan(&a.OrganizationID, &a.IsActive, &a.HasRecentLogin); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *organizationsRepo) SetOrganizationActive(
	ctx context.Context,
	id string,
	active bool,
	now time.Time,
) (bool, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, `
		UPDATE organizations SET is_active = $1, updated_at = $2
		WHERE id = $3 AND is_active IS DISTINCT FROM $1`,
		active, now.UTC(), id,
	))
	return n > 0, err
}

func (r *organizationsRepo) CountOrganizationsCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return countBetween(ctx, r.db, "organizations", from, to)
}
