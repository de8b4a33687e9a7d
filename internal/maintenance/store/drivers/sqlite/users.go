package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
)

type usersRepo struct {
	db dbtx
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, organization_id, phone_number, last_login_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.OrganizationID, u.PhoneNumber, mapOptionalMillis(u.LastLoginAt), toMillis(u.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	var (
		u         domain.User
		lastLogin sql.NullInt64
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organization_id, phone_number, last_login_at, created_at
		FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.OrganizationID, &u.PhoneNumber, &lastLogin, &createdAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.LastLoginAt = mapNullMillis(lastLogin)
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	n, err := rowsAffected(r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, toMillis(at), id,
	))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) CountUsersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return countBetween(ctx, r.db, "users", from, to)
}
