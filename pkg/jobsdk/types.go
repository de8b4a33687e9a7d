// Package jobsdk contains the wire types of the maintenance admin API and a
// small client for triggering jobs remotely.
package jobsdk

import "time"

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"            example:"ok"`
	Uptime  string        `json:"uptime"            example:"1h2m3s"`
	Version string        `json:"version"           example:"v0.1.0"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency probed by /readyz.
type HealthChecks struct {
	Database string `json:"database"        example:"ok"`
	Lock     string `json:"lock,omitempty"  example:"ok"`
}

// JobResultResponse describes one job invocation.
type JobResultResponse struct {
	Job        string           `json:"job"                example:"cleanup_expired_sessions"`
	Success    bool             `json:"success"`
	Skipped    bool             `json:"skipped,omitempty"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	DurationMS int64            `json:"duration_ms"`
	Stats      map[string]int64 `json:"stats,omitempty"`
}

// RunAllResponse is returned by POST /v1/jobs/run.
type RunAllResponse struct {
	Success bool                `json:"success"`
	Results []JobResultResponse `json:"results"`
}

// JobInfo describes a registered job.
type JobInfo struct {
	Name     string `json:"name"     example:"update_factory_active_status"`
	Interval string `json:"interval" example:"24h0m0s"`
}

// JobsResponse is returned by GET /v1/jobs.
type JobsResponse struct {
	Jobs []JobInfo `json:"jobs"`
}

// AuditEntryResponse is a single audit log record.
type AuditEntryResponse struct {
	ID        string         `json:"id"`
	Actor     string         `json:"actor"            example:"system"`
	Action    string         `json:"action"           example:"cleanup_expired_whitelists"`
	Result    string         `json:"result"           example:"success"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditListResponse is returned by GET /v1/audit.
type AuditListResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
}

// ErrorResponse is the error envelope for every non-2xx response.
type ErrorResponse struct {
	Error            string `json:"error"                       example:"not_found"`
	ErrorDescription string `json:"error_description,omitempty" example:"Unknown job"`
}
