package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/service"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// TeamsHandler exposes team endpoints.
type TeamsHandler struct {
	teams *service.TeamService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teamService *service.TeamService) *TeamsHandler {
	return &TeamsHandler{teams: teamService}
}

// Create POST /teams.
func (h *TeamsHandler) Create(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	var req dto.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if req.ProjectID == "" || req.Name == "" {
		return errorutil.NewValidationError("project_id and name required", nil)
	}
	team, err := h.teams.CreateTeam(c.UserContext(), actor, service.TeamCreateInput{
		ProjectID: req.ProjectID,
		Name:      req.Name,
		LeadID:    req.LeadID,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": teamResponse(team)})
}

// List GET /teams?project_id=...
func (h *TeamsHandler) List(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	if projectID == "" {
		return errorutil.NewValidationError("project_id required", nil)
	}
	teams, err := h.teams.ListTeams(c.UserContext(), projectID)
	if err != nil {
		return err
	}
	responses := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		responses = append(responses, teamResponse(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// Get GET /teams/:id.
func (h *TeamsHandler) Get(c *fiber.Ctx) error {
	team, err := h.teams.GetTeam(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}

// Update PATCH /teams/:id.
func (h *TeamsHandler) Update(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	var req dto.UpdateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	team, err := h.teams.UpdateTeam(c.UserContext(), actor, c.Params("id"), service.TeamPatch{
		Name:      req.Name,
		LeadID:    req.LeadID,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}

// Delete DELETE /teams/:id.
func (h *TeamsHandler) Delete(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	if err := h.teams.DeleteTeam(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
