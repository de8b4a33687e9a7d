package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/service"
	"github.com/aussiebroadwan/traceline/pkg/jobsdk"
	"github.com/aussiebroadwan/traceline/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.DatabaseURL = ":memory:"
	cfg.LogLevel = "error"
	cfg.SchedulerEnabled = false
	cfg.AdminJWTSecret = strings.Repeat("k", 32)
	return cfg
}

func TestNewWiresRunnerAndStore(t *testing.T) {
	app, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	var names []string
	for _, j := range app.Runner().Jobs() {
		names = append(names, j.Name())
	}
	require.Equal(t, []string{
		service.JobCleanupExpiredWhitelists,
		service.JobCleanupExpiredSessions,
		service.JobUpdateFactoryActiveStatus,
		service.JobGenerateWeeklyReport,
	}, names)

	results := app.Runner().RunAll(context.Background())
	require.True(t, service.AllSucceeded(results))
	require.NoError(t, app.Store().Ping(context.Background()))
}

func TestNewRejectsUnreachableRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	_, err := New(cfg)
	require.ErrorContains(t, err, "job lock")
}

func TestHandlerServesAdminAPI(t *testing.T) {
	cfg := testConfig(t)
	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	signer, err := jwtx.NewSignerHS256([]byte(cfg.AdminJWTSecret))
	require.NoError(t, err)
	tok, err := signer.Sign(jwtx.NewAdminClaims("test", []string{jwtx.ScopeMaintenanceRun},
		time.Hour, cfg.AdminJWTIssuer, nil, time.Now()))
	require.NoError(t, err)

	client := jobsdk.NewSDKClient(srv.URL, jobsdk.WithToken(tok))

	health, err := client.GetReadiness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)

	res, err := client.RunJob(context.Background(), service.JobGenerateWeeklyReport)
	require.NoError(t, err)
	require.True(t, res.Success)

	resp, err := http.Get(srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
