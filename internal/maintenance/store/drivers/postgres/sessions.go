package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, organization_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		s.Token, s.UserID, s.OrganizationID, s.ExpiresAt.UTC(), s.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByToken(ctx context.Context, token string) (domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, organization_id, expires_at, created_at
		FROM sessions WHERE token = $1`, token,
	).Scan(&s.Token, &s.UserID, &s.OrganizationID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.ExpiresAt = s.ExpiresAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now.UTC()))
}

func (r *sessionsRepo) CountExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE expires_at < $1`, now.UTC()).Scan(&n)
	return n, err
}

func (r *sessionsRepo) CountSessionsCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return countBetween(ctx, r.db, "sessions", from, to)
}
