package domain

import (
	"errors"
	"time"
)

// ErrInvalidStatus is returned when an invitation carries an unknown status.
var ErrInvalidStatus = errors.New("invalid invitation status")

type InvitationStatus string

const (
	InvitationPending InvitationStatus = "PENDING"
	InvitationExpired InvitationStatus = "EXPIRED"
	InvitationUsed    InvitationStatus = "USED"
)

// Valid reports whether s is one of the known statuses.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationExpired, InvitationUsed:
		return true
	}
	return false
}

// Invitation is a whitelist entry allowing a phone number to join an
// organization until ExpiresAt.
type Invitation struct {
	ID             string
	OrganizationID string
	AddedBy        string // User who created the invitation
	PhoneNumber    string
	Status         InvitationStatus
	ExpiresAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsExpiredAt reports whether the invitation deadline has strictly passed.
func (i Invitation) IsExpiredAt(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}
