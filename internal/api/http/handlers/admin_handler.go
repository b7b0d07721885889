package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/service"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// AdminHandler exposes the master admin dashboard endpoints.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: adminService}
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	users, err := h.admin.ListUsers(c.UserContext(), actor)
	if err != nil {
		return err
	}
	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// UpdateUserRole PUT /admin/users/:id/role.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	var req dto.RoleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	user, err := h.admin.ChangeUserRole(c.UserContext(), actor, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Summary GET /admin/stats/summary.
func (h *AdminHandler) Summary(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	summary, err := h.admin.Summary(c.UserContext(), actor, c.QueryInt("month"), c.QueryInt("year"))
	if err != nil {
		return err
	}

	breakdown := make([]dto.OwnerProjectsResponse, 0, len(summary.AdminBreakdown))
	for _, row := range summary.AdminBreakdown {
		breakdown = append(breakdown, dto.OwnerProjectsResponse{
			Username: row.Username,
			Email:    row.Email,
			Count:    row.Projects,
		})
	}
	weekly := make([]dto.WeeklyStatResponse, 0, len(summary.WeeklyStats))
	for _, row := range summary.WeeklyStats {
		weekly = append(weekly, dto.WeeklyStatResponse{
			Week:     row.Week,
			Projects: row.Projects,
			Range:    row.Range,
		})
	}
	return c.JSON(fiber.Map{"data": dto.DashboardSummaryResponse{
		TotalProjects:  summary.TotalProjects,
		AdminBreakdown: breakdown,
		WeeklyStats:    weekly,
		SelectedMonth:  summary.Month,
		SelectedYear:   summary.Year,
	}})
}

// ModeSwitchHistory GET /admin/mode-switch/history.
func (h *AdminHandler) ModeSwitchHistory(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	requests, err := h.admin.ModeSwitchHistory(c.UserContext(), actor)
	if err != nil {
		return err
	}
	responses := make([]dto.ModeSwitchResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, modeSwitchResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}
