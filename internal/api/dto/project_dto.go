package dto

import "time"

// CreateProjectRequest payload.
type CreateProjectRequest struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// UpdateProjectRequest payload.
type UpdateProjectRequest struct {
	Name   *string `json:"name"`
	Prefix *string `json:"prefix"`
}

// ProjectResponse response.
type ProjectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix"`
	OwnerID   *string   `json:"owner_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectDetailResponse response including teams.
type ProjectDetailResponse struct {
	ProjectResponse
	Teams []TeamResponse `json:"teams"`
}
