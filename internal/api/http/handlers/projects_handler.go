package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/service"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// ProjectsHandler exposes project endpoints.
type ProjectsHandler struct {
	projects *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projectService *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projectService}
}

// Create POST /projects.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	project, err := h.projects.CreateProject(c.UserContext(), actor, service.ProjectCreateInput{
		Name:   req.Name,
		Prefix: req.Prefix,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": projectResponse(project)})
}

// List GET /projects.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	projects, err := h.projects.ListProjects(c.UserContext(), actor)
	if err != nil {
		return err
	}
	responses := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		responses = append(responses, projectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// Get GET /projects/:id.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	project, teams, err := h.projects.GetProject(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	detail := dto.ProjectDetailResponse{ProjectResponse: projectResponse(project)}
	detail.Teams = make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		detail.Teams = append(detail.Teams, teamResponse(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": detail})
}

// Update PATCH /projects/:id.
func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	var req dto.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	project, err := h.projects.UpdateProject(c.UserContext(), actor, c.Params("id"), service.ProjectPatch{
		Name:   req.Name,
		Prefix: req.Prefix,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// Archive POST /projects/:id/archive.
func (h *ProjectsHandler) Archive(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	if err := h.projects.ArchiveProject(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reactivate POST /projects/:id/reactivate.
func (h *ProjectsHandler) Reactivate(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	if err := h.projects.ReactivateProject(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
