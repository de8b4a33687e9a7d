// Package storetest holds a conformance suite shared by every store driver.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
	"github.com/aussiebroadwan/traceline/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, migrated store. The suite closes nothing; the
// factory owns cleanup via t.Cleanup.
type Factory func(t *testing.T) store.Store

// Base is the reference instant used by the suite.
var Base = time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)

// Run exercises the repository contracts every driver must honour.
func Run(t *testing.T, newStore Factory) {
	t.Run("invitations", func(t *testing.T) { testInvitations(t, newStore(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("organizations", func(t *testing.T) { testOrganizations(t, newStore(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("audit", func(t *testing.T) { testAudit(t, newStore(t)) })
	t.Run("tx rollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
}

// SeedOrg creates an organization with a single member and returns both ids.
func SeedOrg(t *testing.T, st store.Store, active bool, lastLogin *time.Time) (orgID, userID string) {
	t.Helper()
	ctx := context.Background()

	orgID = idx.New()
	require.NoError(t, st.Organizations().CreateOrganization(ctx, domain.Organization{
		ID:        orgID,
		Name:      "Factory " + orgID[len(orgID)-4:],
		IsActive:  active,
		CreatedAt: Base.Add(-90 * 24 * time.Hour),
	}))

	userID = idx.New()
	require.NoError(t, st.Users().CreateUser(ctx, domain.User{
		ID:             userID,
		OrganizationID: orgID,
		PhoneNumber:    "+61" + userID[len(userID)-9:],
		LastLoginAt:    lastLogin,
		CreatedAt:      Base.Add(-90 * 24 * time.Hour),
	}))
	return orgID, userID
}

// SeedInvitation inserts an invitation with the given status and deadline.
func SeedInvitation(
	t *testing.T,
	st store.Store,
	orgID, userID string,
	status domain.InvitationStatus,
	expiresAt time.Time,
) string {
	t.Helper()
	id := idx.New()
	require.NoError(t, st.Invitations().CreateInvitation(context.Background(), domain.Invitation{
		ID:             id,
		OrganizationID: orgID,
		AddedBy:        userID,
		PhoneNumber:    "+61400" + id[len(id)-6:],
		Status:         status,
		ExpiresAt:      expiresAt,
		CreatedAt:      expiresAt.Add(-7 * 24 * time.Hour),
	}))
	return id
}

// SeedSession inserts a session for userID.
func SeedSession(t *testing.T, st store.Store, orgID, userID string, createdAt, expiresAt time.Time) string {
	t.Helper()
	token := idx.New()
	require.NoError(t, st.Sessions().CreateSession(context.Background(), domain.Session{
		Token:          token,
		UserID:         userID,
		OrganizationID: orgID,
		ExpiresAt:      expiresAt,
		CreatedAt:      createdAt,
	}))
	return token
}

func testInvitations(t *testing.T, st store.Store) {
	ctx := context.Background()
	orgID, userID := SeedOrg(t, st, true, nil)

	past := SeedInvitation(t, st, orgID, userID, domain.InvitationPending, Base.Add(-time.Hour))
	boundary := SeedInvitation(t, st, orgID, userID, domain.InvitationPending, Base)
	future := SeedInvitation(t, st, orgID, userID, domain.InvitationPending, Base.Add(time.Hour))
	used := SeedInvitation(t, st, orgID, userID, domain.InvitationUsed, Base.Add(-48*time.Hour))
	stale := SeedInvitation(t, st, orgID, userID, domain.InvitationExpired, Base.Add(-31*24*time.Hour))

	inv, err := st.Invitations().GetInvitationByID(ctx, past)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationPending, inv.Status)
	require.True(t, inv.ExpiresAt.Equal(Base.Add(-time.Hour)))

	_, err = st.Invitations().GetInvitationByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err := st.Invitations().ExpirePendingInvitations(ctx, Base)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	inv, err = st.Invitations().GetInvitationByID(ctx, past)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, inv.Status)
	require.True(t, inv.UpdatedAt.Equal(Base))

	for _, id := range []string{boundary, future} {
		inv, err = st.Invitations().GetInvitationByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, domain.InvitationPending, inv.Status)
	}
	inv, err = st.Invitations().GetInvitationByID(ctx, used)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationUsed, inv.Status)

	n, err = st.Invitations().PurgeExpiredInvitations(ctx, Base.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	_, err = st.Invitations().GetInvitationByID(ctx, stale)
	require.ErrorIs(t, err, store.ErrNotFound)

	count, err := st.Invitations().CountInvitationsByStatus(ctx, domain.InvitationExpired)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	require.NoError(t, st.Invitations().MarkInvitationUsed(ctx, future, Base))
	require.ErrorIs(t, st.Invitations().MarkInvitationUsed(ctx, future, Base), store.ErrNotFound)

	count, err = st.Invitations().CountInvitationsCreatedBetween(ctx, Base.Add(-7*24*time.Hour), Base)
	require.NoError(t, err)
	require.Equal(t, int64(2), count) // boundary and future were created inside the window

	err = st.Invitations().CreateInvitation(ctx, domain.Invitation{
		ID:             past,
		OrganizationID: orgID,
		AddedBy:        userID,
		PhoneNumber:    "+61000000000",
		ExpiresAt:      Base,
		CreatedAt:      Base,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	err = st.Invitations().CreateInvitation(ctx, domain.Invitation{
		ID:             idx.New(),
		OrganizationID: orgID,
		AddedBy:        userID,
		PhoneNumber:    "+61000000001",
		Status:         "REVOKED",
		ExpiresAt:      Base,
		CreatedAt:      Base,
	})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func testSessions(t *testing.T, st store.Store) {
	ctx := context.Background()
	orgID, userID := SeedOrg(t, st, true, nil)

	expired := SeedSession(t, st, orgID, userID, Base.Add(-48*time.Hour), Base.Add(-time.Millisecond))
	boundary := SeedSession(t, st, orgID, userID, Base.Add(-time.Hour), Base)
	live := SeedSession(t, st, orgID, userID, Base, Base.Add(time.Hour))

	n, err := st.Sessions().CountExpiredSessions(ctx, Base)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = st.Sessions().DeleteExpiredSessions(ctx, Base)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = st.Sessions().GetSessionByToken(ctx, expired)
	require.ErrorIs(t, err, store.ErrNotFound)
	for _, tok := range []string{boundary, live} {
		s, err := st.Sessions().GetSessionByToken(ctx, tok)
		require.NoError(t, err)
		require.Equal(t, userID, s.UserID)
	}

	n, err = st.Sessions().DeleteExpiredSessions(ctx, Base)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = st.Sessions().CountSessionsCreatedBetween(ctx, Base.Add(-time.Hour), Base)
	require.NoError(t, err)
	require.Equal(t, int64(1), n) // live was created at the window end, which is excluded
}

func testOrganizations(t *testing.T, st store.Store) {
	ctx := context.Background()
	since := Base.Add(-15 * 24 * time.Hour)
	recent := Base.Add(-24 * time.Hour)
	old := Base.Add(-20 * 24 * time.Hour)

	activeStale, _ := SeedOrg(t, st, true, &old)
	inactiveRecent, _ := SeedOrg(t, st, false, &recent)
	onBoundary, _ := SeedOrg(t, st, false, &since)
	neverLogged, _ := SeedOrg(t, st, false, nil)

	acts, err := st.Organizations().ListOrganizationActivity(ctx, since)
	require.NoError(t, err)
	require.Len(t, acts, 4)

	byID := make(map[string]domain.OrganizationActivity, len(acts))
	for _, a := range acts {
		byID[a.OrganizationID] = a
	}
	require.Equal(t, domain.OrganizationActivity{OrganizationID: activeStale, IsActive: true}, byID[activeStale])
	require.True(t, byID[inactiveRecent].HasRecentLogin)
	require.True(t, byID[onBoundary].HasRecentLogin)
	require.False(t, byID[neverLogged].HasRecentLogin)

	changed, err := st.Organizations().SetOrganizationActive(ctx, activeStale, false, Base)
	require.NoError(t, err)
	require.True(t, changed)

	org, err := st.Organizations().GetOrganizationByID(ctx, activeStale)
	require.NoError(t, err)
	require.False(t, org.IsActive)
	require.True(t, org.UpdatedAt.Equal(Base))

	changed, err = st.Organizations().SetOrganizationActive(ctx, activeStale, false, Base.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, changed)

	org, err = st.Organizations().GetOrganizationByID(ctx, activeStale)
	require.NoError(t, err)
	require.True(t, org.UpdatedAt.Equal(Base), "unchanged flag must not bump updated_at")

	_, err = st.Organizations().GetOrganizationByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err := st.Organizations().CountOrganizationsCreatedBetween(ctx, Base.Add(-7*24*time.Hour), Base)
	require.NoError(t, err)
	require.Zero(t, n)
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	_, userID := SeedOrg(t, st, false, nil)

	u, err := st.Users().GetUserByID(ctx, userID)
	require.NoError(t, err)
	require.Nil(t, u.LastLoginAt)

	require.NoError(t, st.Users().UpdateLastLogin(ctx, userID, Base))
	u, err = st.Users().GetUserByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, u.LastLoginAt)
	require.True(t, u.LastLoginAt.Equal(Base))

	require.ErrorIs(t, st.Users().UpdateLastLogin(ctx, "missing", Base), store.ErrNotFound)

	n, err := st.Users().CountUsersCreatedBetween(ctx, Base.Add(-100*24*time.Hour), Base)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func testAudit(t *testing.T, st store.Store) {
	ctx := context.Background()
	msg := "boom"

	entries := []domain.AuditEntry{
		{ID: idx.NewAt(Base), Actor: domain.SystemActor, Action: "a", Result: domain.AuditSuccess, CreatedAt: Base},
		{
			ID:        idx.NewAt(Base.Add(time.Second)),
			Actor:     domain.SystemActor,
			Action:    "b",
			Result:    domain.AuditFailure,
			Error:     &msg,
			Metadata:  map[string]any{"deleted": float64(3)},
			CreatedAt: Base.Add(time.Second),
		},
		{ID: idx.NewAt(Base.Add(2 * time.Second)), Actor: domain.SystemActor, Action: "a", Result: domain.AuditSuccess, CreatedAt: Base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		require.NoError(t, st.AuditLog().AppendAuditEntry(ctx, e))
	}

	all, err := st.AuditLog().ListAuditEntries(ctx, domain.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, entries[2].ID, all[0].ID, "newest first")

	onlyA, err := st.AuditLog().ListAuditEntries(ctx, domain.AuditFilter{Action: "a", Limit: 1})
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	require.Equal(t, entries[2].ID, onlyA[0].ID)

	onlyB, err := st.AuditLog().ListAuditEntries(ctx, domain.AuditFilter{Action: "b"})
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
	require.Equal(t, domain.AuditFailure, onlyB[0].Result)
	require.NotNil(t, onlyB[0].Error)
	require.Equal(t, "boom", *onlyB[0].Error)
	require.Equal(t, float64(3), onlyB[0].Metadata["deleted"])

	since, err := st.AuditLog().ListAuditEntries(ctx, domain.AuditFilter{Since: Base.Add(time.Second)})
	require.NoError(t, err)
	require.Len(t, since, 2)
}

func testTxRollback(t *testing.T, st store.Store) {
	ctx := context.Background()
	orgID, userID := SeedOrg(t, st, true, nil)
	token := SeedSession(t, st, orgID, userID, Base.Add(-time.Hour), Base.Add(-time.Minute))

	errBoom := errors.New("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.Sessions().DeleteExpiredSessions(ctx, Base)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = st.Sessions().GetSessionByToken(ctx, token)
	require.NoError(t, err, "rolled back delete must leave the session in place")

	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Sessions().DeleteExpiredSessions(ctx, Base)
		return err
	}))
	_, err = st.Sessions().GetSessionByToken(ctx, token)
	require.ErrorIs(t, err, store.ErrNotFound)
}
