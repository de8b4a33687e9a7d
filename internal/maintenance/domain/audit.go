package domain

import "time"

// SystemActor is the actor recorded for every maintenance job entry.
const SystemActor = "system"

type AuditOutcome string

const (
	AuditSuccess AuditOutcome = "success"
	AuditFailure AuditOutcome = "failure"
)

// AuditEntry is an append-only record of a maintenance action.
type AuditEntry struct {
	ID        string
	Actor     string
	Action    string
	Result    AuditOutcome
	Error     *string // set only for failures
	Metadata  map[string]any
	CreatedAt time.Time
}

// AuditFilter narrows ListAuditEntries. Zero values match everything.
type AuditFilter struct {
	Action string
	Since  time.Time
	Limit  int
}
