package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/desaconnect/complaint-service/internal/api/dto"
	"github.com/desaconnect/complaint-service/internal/service"
	apperrors "github.com/desaconnect/complaint-service/pkg/util/errorutil"
)

// RosterHandler manages the admin allow-list endpoints.
type RosterHandler struct {
	service *service.RosterService
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(rosterService *service.RosterService) *RosterHandler {
	return &RosterHandler{service: rosterService}
}

// List GET /admin/roster.
func (h *RosterHandler) List(c *fiber.Ctx) error {
	entries, err := h.service.ListAdmins(c.UserContext())
	if err != nil {
		return err
	}
	responses := make([]dto.AdminEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, dto.NewAdminEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// Add POST /admin/roster.
func (h *RosterHandler) Add(c *fiber.Ctx) error {
	identity := mustIdentity(c)
	var req dto.AddAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.service.AddAdmin(c.UserContext(), identity.Email, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAdminEntryResponse(entry)})
}

// BatchAdd POST /admin/roster/batch.
func (h *RosterHandler) BatchAdd(c *fiber.Ctx) error {
	identity := mustIdentity(c)
	var req dto.BatchAddAdminsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.Emails) == 0 {
		return apperrors.NewValidationError("emails list is required", nil)
	}
	results := h.service.AddAdminsBatch(c.UserContext(), identity.Email, req.Emails)
	return c.JSON(fiber.Map{"data": results})
}

// Remove DELETE /admin/roster/:email.
func (h *RosterHandler) Remove(c *fiber.Ctx) error {
	identity := mustIdentity(c)
	if err := h.service.RemoveAdmin(c.UserContext(), identity.Email, c.Params("email")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
