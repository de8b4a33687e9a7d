package sqlite

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
		VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.Name, boolToInt(o.IsActive), toMillis(o.CreatedAt), toMillis(updated),
	)
	return mapConstraint(err)
}

func (r *organizationsRepo) GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error) {
	var (
		o                    domain.Organization
		active               int64
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, is_active, created_at, updated_at
		FROM organizations WHERE id = ?`, id,
	).Scan(&o.ID, &o.Name, &active, &createdAt, &updatedAt)
	if err != nil {
		return domain.Organization{}, mapNotFound(err)
	}
	o.IsActive = active != 0
	o.CreatedAt = fromMillis(createdAt)
	o.UpdatedAt = fromMillis(updatedAt)
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
		             AND u.last_login_at >= ?
		       )
		FROM organizations o
		ORDER BY o.id`,
		toMillis(since),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OrganizationActivity
	for rows.Next() {
		var (
			a              domain.OrganizationActivity
			active, recent int64
		)
		if err := rows.Scan(&a.OrganizationID, &active, &recent); err != nil {
			return nil, err
		}
		a.IsActive = active != 0
		a.HasRecentLogin = recent != 0
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
	flag := boolToInt(active)
	n, err := rowsAffected(r.db.ExecContext(ctx, `
		UPDATE organizations SET is_active = ?, updated_at = ?
		WHERE id = ? AND is_active <> ?`,
		flag, toMillis(now), id, flag,
	))
	return n > 0, err
}

func (r *organizationsRepo) CountOrganizationsCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return countBetween(ctx, r.db, "organizations", from, to)
}
