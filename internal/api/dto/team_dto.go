package dto

import "time"

// CreateTeamRequest payload.
type CreateTeamRequest struct {
	ProjectID string   `json:"project_id"`
	Name      string   `json:"name"`
	LeadID    *string  `json:"lead_id"`
	MemberIDs []string `json:"member_ids"`
}

// UpdateTeamRequest payload. member_ids, when present, replaces the full
// membership.
type UpdateTeamRequest struct {
	Name      *string  `json:"name"`
	LeadID    *string  `json:"lead_id"`
	MemberIDs []string `json:"member_ids"`
}

// TeamResponse response.
type TeamResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	LeadID    *string   `json:"lead_id,omitempty"`
	MemberIDs []string  `json:"member_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
