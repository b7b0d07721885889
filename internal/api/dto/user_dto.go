package dto

import (
	"time"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdateProfileRequest payload.
type UpdateProfileRequest struct {
	Username   *string `json:"username"`
	ProfilePic *string `json:"profile_pic"`
}

// ModeSwitchRequestPayload payload for filing a view mode switch request.
type ModeSwitchRequestPayload struct {
	Mode   domain.ViewMode `json:"mode"`
	Reason string          `json:"reason"`
}

// ModeSwitchDecisionPayload payload for deciding a request.
type ModeSwitchDecisionPayload struct {
	Approve bool `json:"approve"`
}

// ModeSwitchResponse response.
type ModeSwitchResponse struct {
	ID            string                  `json:"id"`
	UserID        string                  `json:"user_id"`
	RequestedMode domain.ViewMode         `json:"requested_mode"`
	Reason        string                  `json:"reason,omitempty"`
	Status        domain.ModeSwitchStatus `json:"status"`
	DecidedBy     *string                 `json:"decided_by,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	DecidedAt     *time.Time              `json:"decided_at,omitempty"`
}

// UserResponse response.
type UserResponse struct {
	ID            string          `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	ProfilePic    *string         `json:"profile_pic,omitempty"`
	Role          domain.Role     `json:"role"`
	ViewMode      domain.ViewMode `json:"view_mode"`
	IsMasterAdmin bool            `json:"is_master_admin"`
	CreatedAt     time.Time       `json:"created_at"`
}

// LoginResponse response.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
