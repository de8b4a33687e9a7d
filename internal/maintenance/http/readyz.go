package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
	"github.com/aussiebroadwan/traceline/pkg/httpx"
	"github.com/aussiebroadwan/traceline/pkg/jobsdk"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe checking the database and, when configured, the distributed job lock
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	jobsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	jobsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store, lock Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &jobsdk.HealthChecks{Database: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if lock != nil {
			checks.Lock = "ok"
			if err := lock.Ping(r.Context()); err != nil {
				checks.Lock = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		httpx.WriteJSON(w, statusCode, jobsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
