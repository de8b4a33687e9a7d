package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
	"github.com/aussiebroadwan/traceline/pkg/idx"
)

// Auditor records the outcome of a maintenance action. Implementations must
// not fail the caller.
type Auditor interface {
	Record(ctx context.Context, action string, outcome domain.AuditOutcome, err error, metadata map[string]any)
}

// AuditSink appends entries to the audit log as the system actor. Write
// failures are logged and swallowed.
type AuditSink struct {
	Store  store.Store
	Logger *slog.Logger
	Now    func() time.Time
}

func NewAuditSink(st store.Store, logger *slog.Logger) *AuditSink {
	return &AuditSink{Store: st, Logger: logger}
}

func (a *AuditSink) Record(
	ctx context.Context,
	action string,
	outcome domain.AuditOutcome,
	err error,
	metadata map[string]any,
) {
	now := clock(a.Now)
	entry := domain.AuditEntry{
		ID:        idx.NewAt(now),
		Actor:     domain.SystemActor,
		Action:    action,
		Result:    outcome,
		Metadata:  metadata,
		CreatedAt: now,
	}
	if err != nil {
		msg := err.Error()
		entry.Error = &msg
	}

	// A cancelled job context must not lose the entry.
	writeCtx := context.WithoutCancel(ctx)
	if werr := a.Store.AuditLog().AppendAuditEntry(writeCtx, entry); werr != nil {
		logger := a.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("failed to write audit entry",
			"action", action,
			"result", string(outcome),
			"job_error", errString(err),
			"metadata", metadata,
			"error", werr,
		)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
