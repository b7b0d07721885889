package domain

import "time"

// ModeSwitchStatus tracks the lifecycle of a view mode switch request.
type ModeSwitchStatus string

const (
	ModeSwitchPending  ModeSwitchStatus = "PENDING"
	ModeSwitchApproved ModeSwitchStatus = "APPROVED"
	ModeSwitchRejected ModeSwitchStatus = "REJECTED"
)

// ModeSwitchRequest is a user's request to change view mode, decided by the
// master admin. The master admin never files one.
type ModeSwitchRequest struct {
	ID            string
	UserID        string
	RequestedMode ViewMode
	Reason        string
	Status        ModeSwitchStatus
	DecidedBy     *string
	CreatedAt     time.Time
	DecidedAt     *time.Time
}
