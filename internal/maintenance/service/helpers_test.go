package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store/drivers/sqlite"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store/storetest"
	"github.com/aussiebroadwan/traceline/pkg/slogx"
	"github.com/stretchr/testify/require"
)

var (
	testNow = storetest.Base
	day     = 24 * time.Hour

	errInjected = errors.New("injected store failure")
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// auditEntries lists all audit rows for action.
func auditEntries(t *testing.T, st store.Store, action string) []domain.AuditEntry {
	t.Helper()
	entries, err := st.AuditLog().ListAuditEntries(context.Background(), domain.AuditFilter{Action: action})
	require.NoError(t, err)
	return entries
}

func newAuditSink(st store.Store) *AuditSink {
	return &AuditSink{Store: st, Logger: slogx.Discard(), Now: fixedClock(testNow)}
}

type recordedAudit struct {
	Action   string
	Outcome  domain.AuditOutcome
	Err      error
	Metadata map[string]any
}

type recordingAuditor struct {
	mu      sync.Mutex
	records []recordedAudit
}

func (a *recordingAuditor) Record(_ context.Context, action string, outcome domain.AuditOutcome, err error, md map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, recordedAudit{Action: action, Outcome: outcome, Err: err, Metadata: md})
}

// faultyStore wraps a real store and injects failures into repositories
// handed out inside transactions.
type faultyStore struct {
	store.Store

	expireErr        error
	purgeErr         error
	deleteSessionErr error
	setActiveErrOn   string // organization id
	negativeSessions bool
	auditErr         error
}

func (f *faultyStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return f.Store.WithTx(ctx, func(tx store.Tx) error {
		return fn(&faultyTx{storeTx: tx, f: f})
	})
}

func (f *faultyStore) AuditLog() store.AuditLog {
	if f.auditErr != nil {
		return failingAuditLog{err: f.auditErr}
	}
	return f.Store.AuditLog()
}

var (
	_ store.Store = (*faultyStore)(nil)
	_ store.Tx    = (*faultyTx)(nil)
)

// storeTx keeps the embedded field from shadowing the Tx method.
type storeTx = store.Tx

type faultyTx struct {
	storeTx
	f *faultyStore
}

func (t *faultyTx) Invitations() store.Invitations {
	return &faultyInvitations{Invitations: t.storeTx.Invitations(), f: t.f}
}

func (t *faultyTx) Sessions() store.Sessions {
	return &faultySessions{Sessions: t.storeTx.Sessions(), f: t.f}
}

func (t *faultyTx) Organizations() store.Organizations {
	return &faultyOrganizations{Organizations: t.storeTx.Organizations(), f: t.f}
}

type faultyInvitations struct {
	store.Invitations
	f *faultyStore
}

func (r *faultyInvitations) ExpirePendingInvitations(ctx context.Context, now time.Time) (int64, error) {
	if r.f.expireErr != nil {
		return 0, r.f.expireErr
	}
	return r.Invitations.ExpirePendingInvitations(ctx, now)
}

func (r *faultyInvitations) PurgeExpiredInvitations(ctx context.Context, before time.Time) (int64, error) {
	if r.f.purgeErr != nil {
		return 0, r.f.purgeErr
	}
	return r.Invitations.PurgeExpiredInvitations(ctx, before)
}

type faultySessions struct {
	store.Sessions
	f *faultyStore
}

func (r *faultySessions) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	if r.f.deleteSessionErr != nil {
		return 0, r.f.deleteSessionErr
	}
	return r.Sessions.DeleteExpiredSessions(ctx, now)
}

func (r *faultySessions) CountSessionsCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	if r.f.negativeSessions {
		return -1, nil
	}
	return r.Sessions.CountSessionsCreatedBetween(ctx, from, to)
}

type faultyOrganizations struct {
	store.Organizations
	f *faultyStore
}

func (r *faultyOrganizations) SetOrganizationActive(ctx context.Context, id string, active bool, now time.Time) (bool, error) {
	if r.f.setActiveErrOn == id {
		return false, errInjected
	}
	return r.Organizations.SetOrganizationActive(ctx, id, active, now)
}

type failingAuditLog struct{ err error }

func (l failingAuditLog) AppendAuditEntry(context.Context, domain.AuditEntry) error { return l.err }

func (l failingAuditLog) ListAuditEntries(context.Context, domain.AuditFilter) ([]domain.AuditEntry, error) {
	return nil, l.err
}
