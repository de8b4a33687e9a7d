package domain

import "time"

type User struct {
	ID             string
	OrganizationID string
	PhoneNumber    string
	LastLoginAt    *time.Time // nil until first login
	CreatedAt      time.Time
}
