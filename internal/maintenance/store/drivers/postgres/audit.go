package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
)

type auditRepo struct {
	db dbtx
}

func (r *auditRepo) AppendAuditEntry(ctx context.Context, e domain.AuditEntry) error {
	meta, err := encodeMetadata(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode audit metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor, action, result, error, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Actor, e.Action, string(e.Result), mapOptionalString(e.Error), meta, e.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *auditRepo) ListAuditEntries(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Action != "" {
		where = append(where, "action = "+arg(f.Action))
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= "+arg(f.Since.UTC()))
	}

	q := `SELECT id, actor, action, result, error, metadata, created_at FROM audit_log`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e       domain.AuditEntry
			result  string
			errText sql.NullString
			meta    []byte
		)
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &result, &errText, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Result = domain.AuditOutcome(result)
		e.Error = mapNullStringPtr(errText)
		e.CreatedAt = e.CreatedAt.UTC()
		if e.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, fmt.Errorf("decode audit metadata %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
