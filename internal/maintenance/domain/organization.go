package domain

import "time"

// Organization is a factory or other business unit.
type Organization struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrganizationActivity pairs the stored active flag with whether any member
// logged in inside the activity window.
type OrganizationActivity struct {
	OrganizationID string
	IsActive       bool
	HasRecentLogin bool
}

// NeedsUpdate reports whether the stored flag disagrees with recent activity.
func (a OrganizationActivity) NeedsUpdate() bool {
	return a.IsActive != a.HasRecentLogin
}
