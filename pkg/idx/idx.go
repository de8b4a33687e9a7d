// Package idx wraps ULID generation so every table and log line uses the same
// sortable identifier format.
package idx

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh ULID string stamped with the current time.
func New() string {
	return ulid.Make().String()
}

// NewAt returns a ULID string whose timestamp component is t. Useful when
// seeding rows that should sort by a backdated creation time.
func NewAt(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}
