package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are exposed as methods so that a Tx hands
// out repositories bound to the same transaction.
type Store interface {
	Invitations() Invitations
	Sessions() Sessions
	Organizations() Organizations
	Users() Users
	AuditLog() AuditLog

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Invitations interface {
	// CreateInvitation inserts a whitelist entry. Used for seeding; invitation
	// creation itself belongs to the onboarding service.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// MarkInvitationUsed moves a PENDING invitation to USED.
	MarkInvitationUsed(ctx context.Context, id string, now time.Time) error

	// ExpirePendingInvitations moves every PENDING invitation with
	// expires_at < now to EXPIRED and returns the number of rows changed.
	ExpirePendingInvitations(ctx context.Context, now time.Time) (int64, error)

	// PurgeExpiredInvitations deletes EXPIRED invitations with
	// expires_at < before and returns the number of rows removed.
	PurgeExpiredInvitations(ctx context.Context, before time.Time) (int64, error)

	// CountInvitationsCreatedBetween counts rows with from <= created_at < to.
	// Every Count*CreatedBetween uses the same half-open window.
	CountInvitationsCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)

	CountInvitationsByStatus(ctx context.Context, status domain.InvitationStatus) (int64, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSessionByToken(ctx context.Context, token string) (domain.Session, error)

	// DeleteExpiredSessions deletes sessions with expires_at < now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	CountExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	CountSessionsCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type Organizations interface {
	CreateOrganization(ctx context.Context, o domain.Organization) error
	GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error)

	// ListOrganizationActivity returns every organization with its stored
	// flag and whether a member logged in at or after since.
	ListOrganizationActivity(ctx context.Context, since time.Time) ([]domain.OrganizationActivity, error)

	// SetOrganizationActive writes the flag and bumps updated_at only when the
	// stored value differs. It reports whether a row was changed.
	SetOrganizationActive(ctx context.Context, id string, active bool, now time.Time) (bool, error)

	CountOrganizationsCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type Users interface {
	CreateUser(ctx context.Context, u domain.User) error
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	CountUsersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type AuditLog interface {
	AppendAuditEntry(ctx context.Context, e domain.AuditEntry) error

	// ListAuditEntries returns entries newest first.
	ListAuditEntries(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error)
}
