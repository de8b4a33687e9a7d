package domain

import "time"

// Session is a login session. A stored session is valid until ExpiresAt.
type Session struct {
	Token          string
	UserID         string
	OrganizationID string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

func (s Session) IsExpiredAt(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
