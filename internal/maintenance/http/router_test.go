package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mhttp "github.com/aussiebroadwan/traceline/internal/maintenance/http"
	"github.com/aussiebroadwan/traceline/internal/maintenance/lock"
	"github.com/aussiebroadwan/traceline/internal/maintenance/service"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store/drivers/sqlite"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store/storetest"
	"github.com/aussiebroadwan/traceline/pkg/jobsdk"
	"github.com/aussiebroadwan/traceline/pkg/jwtx"
	"github.com/aussiebroadwan/traceline/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testIssuer = "traceline-admin"
)

type fixture struct {
	store  store.Store
	locker *lock.Local
	router *mhttp.Router
}

func newFixture(t *testing.T, withVerifier bool) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	now := func() time.Time { return storetest.Base }
	logger := slogx.Discard()
	audit := &service.AuditSink{Store: st, Logger: logger, Now: now}
	locker := lock.NewLocal()

	runner := service.NewRunner(locker, time.Minute, logger,
		&service.WhitelistJob{Store: st, Audit: audit, Logger: logger, Now: now},
		&service.SessionJob{Store: st, Audit: audit, Logger: logger, Now: now},
	)

	var verifier jwtx.Verifier
	if withVerifier {
		verifier, err = jwtx.NewVerifierHS256([]byte(testSecret), testIssuer, nil)
		require.NoError(t, err)
	}

	r := mhttp.NewRouter(verifier, "v-test", st, runner, logger)
	r.Schedules = []service.Schedule{{Job: service.JobCleanupExpiredSessions, Interval: time.Hour}}
	r.ApplyRoutes()

	return &fixture{store: st, locker: locker, router: r}
}

func token(t *testing.T, scopes ...string) string {
	t.Helper()
	signer, err := jwtx.NewSignerHS256([]byte(testSecret))
	require.NoError(t, err)
	tok, err := signer.Sign(jwtx.NewAdminClaims("cron", scopes, time.Hour, testIssuer, nil, time.Now()))
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, method, path, tok string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestLivez(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, http.MethodGet, "/livez", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[jobsdk.HealthResponse](t, rec)
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "v-test", body.Version)
	require.NotEmpty(t, rec.Header().Get(slogx.RequestIDHeader))
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		f := newFixture(t, true)
		rec := f.do(t, http.MethodGet, "/readyz", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[jobsdk.HealthResponse](t, rec)
		require.Equal(t, "ok", body.Checks.Database)
		require.Empty(t, body.Checks.Lock)
	})

	t.Run("lock down", func(t *testing.T) {
		f := newFixture(t, true)
		h := mhttp.ReadyzHandler(time.Now(), "v", f.store, pinger{err: errors.New("connection refused")})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		body := decode[jobsdk.HealthResponse](t, rec)
		require.Equal(t, "degraded", body.Status)
		require.Equal(t, "ok", body.Checks.Database)
		require.Contains(t, body.Checks.Lock, "connection refused")
	})

	t.Run("database closed", func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, f.store.Close())

		rec := f.do(t, http.MethodGet, "/readyz", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "degraded", decode[jobsdk.HealthResponse](t, rec).Status)
	})
}

func TestRunJob(t *testing.T) {
	f := newFixture(t, true)
	tok := token(t, jwtx.ScopeMaintenanceRun)

	rec := f.do(t, http.MethodPost, "/v1/jobs/cleanup_expired_sessions/run", tok)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[jobsdk.JobResultResponse](t, rec)
	require.Equal(t, service.JobCleanupExpiredSessions, body.Job)
	require.True(t, body.Success)
	require.Contains(t, body.Stats, "deleted")
}

func TestRunJobErrors(t *testing.T) {
	f := newFixture(t, true)
	tok := token(t, jwtx.ScopeMaintenanceRun)

	t.Run("unauthenticated", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/jobs/cleanup_expired_sessions/run", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scope", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/jobs/cleanup_expired_sessions/run", token(t, jwtx.ScopeAuditRead))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown job", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/jobs/defrost_freezers/run", tok)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "not_found", decode[jobsdk.ErrorResponse](t, rec).Error)
	})

	t.Run("locked", func(t *testing.T) {
		unlock, ok, err := f.locker.TryLock(context.Background(), "job:"+service.JobCleanupExpiredWhitelists, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		defer unlock()

		rec := f.do(t, http.MethodPost, "/v1/jobs/cleanup_expired_whitelists/run", tok)
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "job_locked", decode[jobsdk.ErrorResponse](t, rec).Error)
	})
}

func TestRunAll(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, http.MethodPost, "/v1/jobs/run", token(t, jwtx.ScopeMaintenanceRun))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[jobsdk.RunAllResponse](t, rec)
	require.True(t, body.Success)
	require.Len(t, body.Results, 2)
	require.Equal(t, service.JobCleanupExpiredWhitelists, body.Results[0].Job)
	require.Equal(t, service.JobCleanupExpiredSessions, body.Results[1].Job)
}

func TestListJobs(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, http.MethodGet, "/v1/jobs", token(t, jwtx.ScopeMaintenanceRead))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[jobsdk.JobsResponse](t, rec)
	require.Equal(t, []jobsdk.JobInfo{
		{Name: service.JobCleanupExpiredWhitelists},
		{Name: service.JobCleanupExpiredSessions, Interval: "1h0m0s"},
	}, body.Jobs)
}

func TestListAudit(t *testing.T) {
	f := newFixture(t, true)
	runTok := token(t, jwtx.ScopeMaintenanceRun)
	auditTok := token(t, jwtx.ScopeAuditRead)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/v1/jobs/run", runTok).Code)

	rec := f.do(t, http.MethodGet, "/v1/audit", auditTok)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[jobsdk.AuditListResponse](t, rec).Entries, 2)

	rec = f.do(t, http.MethodGet, "/v1/audit?action=cleanup_expired_sessions", auditTok)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[jobsdk.AuditListResponse](t, rec).Entries
	require.Len(t, entries, 1)
	require.Equal(t, "system", entries[0].Actor)
	require.Equal(t, "success", entries[0].Result)

	rec = f.do(t, http.MethodGet, "/v1/audit?limit=1", auditTok)
	require.Len(t, decode[jobsdk.AuditListResponse](t, rec).Entries, 1)

	rec = f.do(t, http.MethodGet, "/v1/audit?limit=zero", auditTok)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/audit?since=yesterday", auditTok)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/audit", runTok)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoutesDisabledWithoutVerifier(t *testing.T) {
	f := newFixture(t, false)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/livez", "").Code)
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/v1/jobs/run", "").Code)
}

func TestRouterWorksWithSDKClient(t *testing.T) {
	f := newFixture(t, true)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	client := jobsdk.NewSDKClient(srv.URL, jobsdk.WithToken(token(t, jwtx.ScopeMaintenanceRun)))
	ctx := context.Background()

	res, err := client.RunJob(ctx, service.JobCleanupExpiredWhitelists)
	require.NoError(t, err)
	require.True(t, res.Success)

	_, err = client.RunJob(ctx, "nope")
	require.ErrorIs(t, err, jobsdk.ErrNotFound)

	_, err = client.ListAudit(ctx, "", 0)
	require.ErrorIs(t, err, jobsdk.ErrForbidden)
}
