package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/service"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// ModeSwitchHandler exposes view mode switch endpoints.
type ModeSwitchHandler struct {
	modeSwitch *service.ModeSwitchService
}

// NewModeSwitchHandler constructs handler.
func NewModeSwitchHandler(modeSwitchService *service.ModeSwitchService) *ModeSwitchHandler {
	return &ModeSwitchHandler{modeSwitch: modeSwitchService}
}

// Request POST /mode-switch/requests.
func (h *ModeSwitchHandler) Request(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	var req dto.ModeSwitchRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	request, err := h.modeSwitch.Request(c.UserContext(), actor, req.Mode, req.Reason)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": modeSwitchResponse(request)})
}

// ListPending GET /mode-switch/requests.
func (h *ModeSwitchHandler) ListPending(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	requests, err := h.modeSwitch.ListPending(c.UserContext(), actor)
	if err != nil {
		return err
	}
	responses := make([]dto.ModeSwitchResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, modeSwitchResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// Decide POST /mode-switch/requests/:id/decide.
func (h *ModeSwitchHandler) Decide(c *fiber.Ctx) error {
	actor := auth.Principal(c)
	var req dto.ModeSwitchDecisionPayload
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	request, err := h.modeSwitch.Decide(c.UserContext(), actor, c.Params("id"), req.Approve)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": modeSwitchResponse(request)})
}
