package domain

import "time"

// Role enumerates user roles.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleDeveloper Role = "DEVELOPER"
	RoleTester    Role = "TESTER"
	RoleOther     Role = "OTHER"
)

// ValidRole reports whether the role is one of the closed set.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleTester, RoleOther:
		return true
	}
	return false
}

// ViewMode is a scope selector, not a privilege: it narrows which projects an
// actor operates over before any permission check runs.
type ViewMode string

const (
	ViewModeAdmin     ViewMode = "ADMIN"
	ViewModeDeveloper ViewMode = "DEVELOPER"
)

// ValidViewMode reports whether the mode is one of the closed set.
func ValidViewMode(m ViewMode) bool {
	return m == ViewModeAdmin || m == ViewModeDeveloper
}

// User is the identity record consumed by the authorization core. IsMasterAdmin
// is set at provisioning time, never derived at request time.
type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	ProfilePic    *string
	Role          Role
	ViewMode      ViewMode
	IsMasterAdmin bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectiveViewMode returns the mode the user actually operates in. The master
// admin always operates in ADMIN mode regardless of the stored value.
func (u *User) EffectiveViewMode() ViewMode {
	if u.IsMasterAdmin {
		return ViewModeAdmin
	}
	return u.ViewMode
}
