package dto

import "github.com/spec-kit/issue-tracker/internal/domain"

// RoleUpdateRequest payload for changing a user's role.
type RoleUpdateRequest struct {
	Role domain.Role `json:"role"`
}

// OwnerProjectsResponse is one row of the per-admin project breakdown.
type OwnerProjectsResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Count    int    `json:"count"`
}

// WeeklyStatResponse is one week slice of the dashboard month.
type WeeklyStatResponse struct {
	Week     string `json:"week"`
	Projects int    `json:"projects"`
	Range    string `json:"range"`
}

// DashboardSummaryResponse response.
type DashboardSummaryResponse struct {
	TotalProjects  int                     `json:"total_projects"`
	AdminBreakdown []OwnerProjectsResponse `json:"admin_breakdown"`
	WeeklyStats    []WeeklyStatResponse    `json:"weekly_stats"`
	SelectedMonth  int                     `json:"selected_month"`
	SelectedYear   int                     `json:"selected_year"`
}
