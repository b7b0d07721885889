package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/service"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// IssuesHandler exposes work item endpoints.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issueService}
}

// Create POST /issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if req.ProjectID == "" || req.Title == "" || req.IssueType == "" {
		return errorutil.NewValidationError("project_id, title, issue_type required", nil)
	}
	startDate, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return err
	}
	endDate, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return err
	}

	item, err := h.issues.CreateIssue(c.UserContext(), actor, service.IssueCreateInput{
		ProjectID:     req.ProjectID,
		TeamID:        req.TeamID,
		ParentID:      req.ParentID,
		IssueType:     req.IssueType,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Status:        req.Status,
		AssigneeID:    req.AssigneeID,
		Reviewer:      req.Reviewer,
		SprintNumber:  req.SprintNumber,
		ReleaseNumber: req.ReleaseNumber,
		StartDate:     startDate,
		EndDate:       endDate,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": issueResponse(item)})
}

// List GET /issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	var projectID *string
	if value := c.Query("project_id"); value != "" {
		projectID = &value
	}
	items, err := h.issues.ListVisibleIssues(c.UserContext(), actor, projectID)
	if err != nil {
		return err
	}
	responses := make([]dto.IssueResponse, 0, len(items))
	for i := range items {
		responses = append(responses, issueResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// Get GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	item, err := h.issues.GetIssue(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(item)})
}

// GetByCode GET /issues/code/:code.
func (h *IssuesHandler) GetByCode(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	item, err := h.issues.GetIssueByCode(c.UserContext(), actor, c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(item)})
}

// Update PATCH /issues/:id.
func (h *IssuesHandler) Update(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	var req dto.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	startDate, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return err
	}
	endDate, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return err
	}

	patch := service.IssuePatch{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		IssueType:      req.IssueType,
		Priority:       req.Priority,
		AssigneeID:     req.AssigneeID,
		Reviewer:       req.Reviewer,
		SprintNumber:   req.SprintNumber,
		ReleaseNumber:  req.ReleaseNumber,
		StartDate:      startDate,
		ClearStartDate: req.StartDate != nil && *req.StartDate == "",
		EndDate:        endDate,
		ClearEndDate:   req.EndDate != nil && *req.EndDate == "",
		TeamID:         req.TeamID,
		ParentID:       req.ParentID,
	}
	item, err := h.issues.UpdateIssue(c.UserContext(), actor, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(item)})
}

// Delete DELETE /issues/:id.
func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	if err := h.issues.DeleteIssue(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Activity GET /issues/:id/activity.
func (h *IssuesHandler) Activity(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	entries, err := h.issues.GetActivity(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	responses := make([]dto.ActivityResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, activityResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// AvailableParents GET /issues/parents.
func (h *IssuesHandler) AvailableParents(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	issueType := domain.IssueType(c.Query("issue_type"))
	if projectID == "" || issueType == "" {
		return errorutil.NewValidationError("project_id and issue_type required", nil)
	}
	if !domain.ValidIssueType(issueType) {
		return errorutil.NewValidationError("invalid issue type", map[string]any{"issue_type": issueType})
	}
	var excludeID *string
	if value := c.Query("exclude_id"); value != "" {
		excludeID = &value
	}
	summaries, err := h.issues.ListAvailableParents(c.UserContext(), projectID, issueType, excludeID)
	if err != nil {
		return err
	}
	options := make([]dto.ParentOption, 0, len(summaries))
	for _, summary := range summaries {
		options = append(options, dto.ParentOption{
			ID:        summary.ID,
			Code:      summary.Code,
			Title:     summary.Title,
			IssueType: summary.IssueType,
		})
	}
	return c.JSON(fiber.Map{"data": options})
}
