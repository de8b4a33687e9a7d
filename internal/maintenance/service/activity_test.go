package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store/storetest"
	"github.com/aussiebroadwan/traceline/pkg/idx"
	"github.com/aussiebroadwan/traceline/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newActivityJob(st store.Store, now time.Time) *ActivityJob {
	return &ActivityJob{
		Store:  st,
		Audit:  newAuditSink(st),
		Logger: slogx.Discard(),
		Now:    fixedClock(now),
	}
}

func getOrg(t *testing.T, st store.Store, id string) domain.Organization {
	t.Helper()
	org, err := st.Organizations().GetOrganizationByID(context.Background(), id)
	require.NoError(t, err)
	return org
}

func addMember(t *testing.T, st store.Store, orgID string, lastLogin *time.Time) string {
	t.Helper()
	id := idx.New()
	require.NoError(t, st.Users().CreateUser(context.Background(), domain.User{
		ID:             id,
		OrganizationID: orgID,
		PhoneNumber:    "+6142" + id[len(id)-8:],
		LastLoginAt:    lastLogin,
		CreatedAt:      testNow.Add(-100 * day),
	}))
	return id
}

func TestUpdateFactoryActiveStatusStaleOrganization(t *testing.T) {
	stale := testNow.Add(-31 * day)

	t.Run("active flips to inactive", func(t *testing.T) {
		st := newTestStore(t)
		orgID, _ := storetest.SeedOrg(t, st, true, &stale)
		addMember(t, st, orgID, &stale)

		res := newActivityJob(st, testNow).UpdateFactoryActiveStatus(context.Background())
		require.True(t, res.Success, res.Error())
		require.Equal(t, int64(1), res.Stats["deactivated"])

		org := getOrg(t, st, orgID)
		require.False(t, org.IsActive)
		require.True(t, org.UpdatedAt.Equal(testNow))
	})

	t.Run("already inactive is left untouched", func(t *testing.T) {
		st := newTestStore(t)
		orgID, _ := storetest.SeedOrg(t, st, false, &stale)
		before := getOrg(t, st, orgID)

		res := newActivityJob(st, testNow).UpdateFactoryActiveStatus(context.Background())
		require.True(t, res.Success)
		require.Equal(t, map[string]int64{"evaluated": 1, "activated": 0, "deactivated": 0}, res.Stats)

		after := getOrg(t, st, orgID)
		require.False(t, after.IsActive)
		require.True(t, after.UpdatedAt.Equal(before.UpdatedAt))
	})
}

func TestUpdateFactoryActiveStatusRecentLoginReactivates(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	stale := testNow.Add(-40 * day)
	orgID, userID := storetest.SeedOrg(t, st, true, &stale)

	first := newActivityJob(st, testNow).UpdateFactoryActiveStatus(ctx)
	require.True(t, first.Success)
	require.False(t, getOrg(t, st, orgID).IsActive)

	later := testNow.Add(time.Hour)
	require.NoError(t, st.Users().UpdateLastLogin(ctx, userID, later))

	second := newActivityJob(st, later).UpdateFactoryActiveStatus(ctx)
	require.True(t, second.Success)
	require.Equal(t, int64(1), second.Stats["activated"])

	org := getOrg(t, st, orgID)
	require.True(t, org.IsActive)
	require.WithinDuration(t, later, org.UpdatedAt, 2*time.Second)
}

func TestUpdateFactoryActiveStatusWindowIsInclusive(t *testing.T) {
	st := newTestStore(t)
	edge := testNow.Add(-DefaultActivityWindow)
	outside := edge.Add(-time.Millisecond)

	onEdge, _ := storetest.SeedOrg(t, st, false, &edge)
	beyond, _ := storetest.SeedOrg(t, st, true, &outside)
	neverLoggedIn, _ := storetest.SeedOrg(t, st, true, nil)

	res := newActivityJob(st, testNow).UpdateFactoryActiveStatus(context.Background())
	require.True(t, res.Success)
	require.Equal(t, map[string]int64{"evaluated": 3, "activated": 1, "deactivated": 2}, res.Stats)

	require.True(t, getOrg(t, st, onEdge).IsActive)
	require.False(t, getOrg(t, st, beyond).IsActive)
	require.False(t, getOrg(t, st, neverLoggedIn).IsActive)
}

func TestUpdateFactoryActiveStatusAnyMemberCounts(t *testing.T) {
	st := newTestStore(t)
	stale := testNow.Add(-60 * day)
	recent := testNow.Add(-2 * day)

	orgID, _ := storetest.SeedOrg(t, st, false, &stale)
	addMember(t, st, orgID, nil)
	addMember(t, st, orgID, &recent)

	res := newActivityJob(st, testNow).UpdateFactoryActiveStatus(context.Background())
	require.True(t, res.Success)
	require.True(t, getOrg(t, st, orgID).IsActive)
}

func TestUpdateFactoryActiveStatusAbortsWholeBatch(t *testing.T) {
	base := newTestStore(t)
	stale := testNow.Add(-60 * day)

	first, _ := storetest.SeedOrg(t, base, true, &stale)
	second, _ := storetest.SeedOrg(t, base, true, &stale)

	// Rows are processed in id order, so failing on the second leaves the
	// first already updated inside the transaction.
	failOn := second
	if second < first {
		failOn = first
	}

	job := newActivityJob(&faultyStore{Store: base, setActiveErrOn: failOn}, testNow)
	job.Audit = newAuditSink(base)

	res := job.UpdateFactoryActiveStatus(context.Background())
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, errInjected)

	require.True(t, getOrg(t, base, first).IsActive)
	require.True(t, getOrg(t, base, second).IsActive)

	entries := auditEntries(t, base, JobUpdateFactoryActiveStatus)
	require.Len(t, entries, 1)
	require.Equal(t, domain.AuditFailure, entries[0].Result)
}
