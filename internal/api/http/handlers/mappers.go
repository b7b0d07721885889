package handlers

import (
	"time"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

const dateLayout = "2006-01-02"

func issueResponse(item *domain.WorkItem) dto.IssueResponse {
	return dto.IssueResponse{
		ID:            item.ID,
		ProjectID:     item.ProjectID,
		Code:          item.Code,
		TeamID:        item.TeamID,
		AssigneeID:    item.AssigneeID,
		Reviewer:      item.Reviewer,
		Title:         item.Title,
		Description:   item.Description,
		IssueType:     item.IssueType,
		Priority:      item.Priority,
		Status:        item.Status,
		ParentID:      item.ParentID,
		SprintNumber:  item.SprintNumber,
		ReleaseNumber: item.ReleaseNumber,
		StartDate:     formatDate(item.StartDate),
		EndDate:       formatDate(item.EndDate),
		CreatedBy:     item.CreatedBy,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func activityResponse(entry *domain.Activity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:          entry.ID,
		UserID:      entry.UserID,
		Action:      string(entry.Action),
		Changes:     entry.Changes,
		ChangeCount: entry.ChangeCount,
		CreatedAt:   entry.CreatedAt,
	}
}

func projectResponse(project *domain.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:        project.ID,
		Name:      project.Name,
		Prefix:    project.Prefix,
		OwnerID:   project.OwnerID,
		IsActive:  project.IsActive,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}
}

func teamResponse(team *domain.Team) dto.TeamResponse {
	members := team.MemberIDs
	if members == nil {
		members = []string{}
	}
	return dto.TeamResponse{
		ID:        team.ID,
		ProjectID: team.ProjectID,
		Name:      team.Name,
		LeadID:    team.LeadID,
		MemberIDs: members,
		CreatedAt: team.CreatedAt,
		UpdatedAt: team.UpdatedAt,
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		ProfilePic:    user.ProfilePic,
		Role:          user.Role,
		ViewMode:      user.EffectiveViewMode(),
		IsMasterAdmin: user.IsMasterAdmin,
		CreatedAt:     user.CreatedAt,
	}
}

func modeSwitchResponse(request *domain.ModeSwitchRequest) dto.ModeSwitchResponse {
	return dto.ModeSwitchResponse{
		ID:            request.ID,
		UserID:        request.UserID,
		RequestedMode: request.RequestedMode,
		Reason:        request.Reason,
		Status:        request.Status,
		DecidedBy:     request.DecidedBy,
		CreatedAt:     request.CreatedAt,
		DecidedAt:     request.DecidedAt,
	}
}

func notificationResponse(notification *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        notification.ID,
		Title:     notification.Title,
		Message:   notification.Message,
		IsRead:    notification.IsRead,
		CreatedAt: notification.CreatedAt,
	}
}

func formatDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.Format(dateLayout)
	return &formatted
}

// parseDate parses an optional YYYY-MM-DD value. An empty string yields nil,
// which clears the stored date.
func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	if *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, errorutil.NewValidationError("invalid date", map[string]any{"field": field, "expected": dateLayout})
	}
	return &parsed, nil
}
