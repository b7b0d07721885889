package dto

import (
	"time"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// CreateIssueRequest payload. Dates use YYYY-MM-DD.
type CreateIssueRequest struct {
	ProjectID     string           `json:"project_id"`
	TeamID        *string          `json:"team_id"`
	ParentID      *string          `json:"parent_id"`
	IssueType     domain.IssueType `json:"issue_type"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Priority      domain.Priority  `json:"priority"`
	Status        domain.Status    `json:"status"`
	AssigneeID    *string          `json:"assignee_id"`
	Reviewer      *string          `json:"reviewer"`
	SprintNumber  *string          `json:"sprint_number"`
	ReleaseNumber *string          `json:"release_number"`
	StartDate     *string          `json:"start_date"`
	EndDate       *string          `json:"end_date"`
}

// UpdateIssueRequest payload. Absent fields stay unchanged; empty strings
// clear optional references.
type UpdateIssueRequest struct {
	Title         *string           `json:"title"`
	Description   *string           `json:"description"`
	Status        *domain.Status    `json:"status"`
	IssueType     *domain.IssueType `json:"issue_type"`
	Priority      *domain.Priority  `json:"priority"`
	AssigneeID    *string           `json:"assignee_id"`
	Reviewer      *string           `json:"reviewer"`
	SprintNumber  *string           `json:"sprint_number"`
	ReleaseNumber *string           `json:"release_number"`
	StartDate     *string           `json:"start_date"`
	EndDate       *string           `json:"end_date"`
	TeamID        *string           `json:"team_id"`
	ParentID      *string           `json:"parent_id"`
}

// IssueResponse response.
type IssueResponse struct {
	ID            string           `json:"id"`
	ProjectID     string           `json:"project_id"`
	Code          string           `json:"code"`
	TeamID        *string          `json:"team_id,omitempty"`
	AssigneeID    *string          `json:"assignee_id,omitempty"`
	Reviewer      *string          `json:"reviewer,omitempty"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	IssueType     domain.IssueType `json:"issue_type"`
	Priority      domain.Priority  `json:"priority"`
	Status        domain.Status    `json:"status"`
	ParentID      *string          `json:"parent_id,omitempty"`
	SprintNumber  *string          `json:"sprint_number,omitempty"`
	ReleaseNumber *string          `json:"release_number,omitempty"`
	StartDate     *string          `json:"start_date,omitempty"`
	EndDate       *string          `json:"end_date,omitempty"`
	CreatedBy     *string          `json:"created_by,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ParentOption response for the parent picker.
type ParentOption struct {
	ID        string           `json:"id"`
	Code      string           `json:"code"`
	Title     string           `json:"title"`
	IssueType domain.IssueType `json:"issue_type"`
}

// ActivityResponse response.
type ActivityResponse struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id,omitempty"`
	Action      string    `json:"action"`
	Changes     string    `json:"changes"`
	ChangeCount int       `json:"change_count"`
	CreatedAt   time.Time `json:"created_at"`
}
