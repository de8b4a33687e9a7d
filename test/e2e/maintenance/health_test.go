package maintenance_test

import (
	"testing"

	"github.com/aussiebroadwan/traceline/pkg/jobsdk"
	"github.com/stretchr/testify/require"
)

func TestLivezEndpoint(t *testing.T) {
	client := jobsdk.NewSDKClient(setupMaintenanceContainer(t))

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
}

func TestReadyzEndpoint(t *testing.T) {
	client := jobsdk.NewSDKClient(setupMaintenanceContainer(t))

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.Equal(t, "ok", health.Checks.Database)
}
