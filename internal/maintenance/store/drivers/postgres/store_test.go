package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store/drivers/postgres"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store/storetest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	dsnOnce sync.Once
	dsn     string
	dsnErr  error
)

// testDSN prefers TEST_DATABASE_URL and otherwise starts one postgres
// container for the whole package.
func testDSN(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	if v := os.Getenv("TEST_DATABASE_URL"); v != "" {
		return v
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	dsnOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("traceline"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
		)
		if err != nil {
			dsnErr = err
			return
		}
		// Reaped by ryuk when the test binary exits.
		dsn, dsnErr = container.ConnectionString(ctx, "sslmode=disable")
	})
	require.NoError(t, dsnErr)
	return dsn
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()

	st, err := postgres.NewStore(ctx, postgres.Config{DSN: testDSN(t), MaxOpenConns: 4})
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())

	_, err = st.DB().ExecContext(ctx,
		`TRUNCATE audit_log, sessions, invitations, users, organizations CASCADE`)
	require.NoError(t, err)

	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestConformance(t *testing.T) {
	storetest.Run(t, newStore)
}
