package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrNegativeCount = errors.New("negative count")

// WeeklyReport summarizes new records created inside [From, To).
type WeeklyReport struct {
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	NewOrganizations int64     `json:"new_organizations"`
	NewUsers         int64     `json:"new_users"`
	NewInvitations   int64     `json:"new_invitations"`
	NewSessions      int64     `json:"new_sessions"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// Validate rejects reports with a negative count or an inverted window.
func (r WeeklyReport) Validate() error {
	counts := []struct {
		name string
		n    int64
	}{
		{"new_organizations", r.NewOrganizations},
		{"new_users", r.NewUsers},
		{"new_invitations", r.NewInvitations},
		{"new_sessions", r.NewSessions},
	}
	for _, c := range counts {
		if c.n < 0 {
			return fmt.Errorf("%s=%d: %w", c.name, c.n, ErrNegativeCount)
		}
	}
	if r.To.Before(r.From) {
		return fmt.Errorf("report window ends before it starts")
	}
	return nil
}

// Stats flattens the counts for job results and audit metadata.
func (r WeeklyReport) Stats() map[string]int64 {
	return map[string]int64{
		"new_organizations": r.NewOrganizations,
		"new_users":         r.NewUsers,
		"new_invitations":   r.NewInvitations,
		"new_sessions":      r.NewSessions,
	}
}
