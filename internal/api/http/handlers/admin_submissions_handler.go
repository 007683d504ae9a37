package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/desaconnect/complaint-service/internal/api/dto"
	"github.com/desaconnect/complaint-service/internal/auth"
	"github.com/desaconnect/complaint-service/internal/service"
	apperrors "github.com/desaconnect/complaint-service/pkg/util/errorutil"
)

// AdminSubmissionsHandler serves the admin back office. Every route is
// behind the admin guard.
type AdminSubmissionsHandler struct {
	service *service.SubmissionService
}

// NewAdminSubmissionsHandler constructs the handler.
func NewAdminSubmissionsHandler(submissionService *service.SubmissionService) *AdminSubmissionsHandler {
	return &AdminSubmissionsHandler{service: submissionService}
}

// List GET /admin/submissions.
func (h *AdminSubmissionsHandler) List(c *fiber.Ctx) error {
	input := service.SubmissionListInput{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		SortAsc:  strings.EqualFold(c.Query("sort"), "asc"),
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
	}

	items, total, err := h.service.List(c.UserContext(), input)
	if err != nil {
		return err
	}

	responses := make([]dto.SubmissionResponse, 0, len(items))
	for i := range items {
		responses = append(responses, dto.NewSubmissionResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.SubmissionListResponse{
		Items:    responses,
		Total:    total,
		Page:     maxInt(input.Page, 1),
		PageSize: input.PageSize,
	}})
}

// Get GET /admin/submissions/:id.
func (h *AdminSubmissionsHandler) Get(c *fiber.Ctx) error {
	sub, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubmissionResponse(sub)})
}

// UpdateStatus PATCH /admin/submissions/:id/status.
func (h *AdminSubmissionsHandler) UpdateStatus(c *fiber.Ctx) error {
	identity := mustIdentity(c)
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sub, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status, identity.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubmissionResponse(sub)})
}

// UpdatePriority PATCH /admin/submissions/:id/priority.
func (h *AdminSubmissionsHandler) UpdatePriority(c *fiber.Ctx) error {
	identity := mustIdentity(c)
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sub, err := h.service.UpdatePriority(c.UserContext(), c.Params("id"), req.Priority, identity.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubmissionResponse(sub)})
}

// AddComment POST /admin/submissions/:id/comments.
func (h *AdminSubmissionsHandler) AddComment(c *fiber.Ctx) error {
	identity := mustIdentity(c)
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sub, err := h.service.AppendComment(c.UserContext(), c.Params("id"), req.Text, identity.Email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewSubmissionResponse(sub)})
}

// Assign PATCH /admin/submissions/:id/assignee.
func (h *AdminSubmissionsHandler) Assign(c *fiber.Ctx) error {
	identity := mustIdentity(c)
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssignedTo != nil {
		normalized := auth.NormalizeEmail(*req.AssignedTo)
		if !auth.ValidEmail(normalized) {
			return apperrors.NewValidationError("assigned_to must be a valid email", nil)
		}
		req.AssignedTo = &normalized
	}
	sub, err := h.service.Assign(c.UserContext(), c.Params("id"), req.AssignedTo, identity.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubmissionResponse(sub)})
}

// Delete DELETE /admin/submissions/:id.
func (h *AdminSubmissionsHandler) Delete(c *fiber.Ctx) error {
	identity := mustIdentity(c)
	if err := h.service.Delete(c.UserContext(), c.Params("id"), identity.Email); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
