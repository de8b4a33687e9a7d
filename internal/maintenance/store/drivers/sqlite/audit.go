package sqlite

import (
	"context"
	"database/sql"
	"fmt"
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
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Actor, e.Action, string(e.Result), mapOptionalString(e.Error), meta, toMillis(e.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *auditRepo) ListAuditEntries(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, toMillis(f.Since))
	}

	q := `SELECT id, actor, action, result, error, metadata, created_at FROM audit_log`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e         domain.AuditEntry
			result    string
			errText   sql.NullString
			meta      sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &result, &errText, &meta, &createdAt); err != nil {
			return nil, err
		}
		e.Result = domain.AuditOutcome(result)
		e.Error = mapNullStringPtr(errText)
		e.CreatedAt = fromMillis(createdAt)
		if e.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, fmt.Errorf("decode audit metadata %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
