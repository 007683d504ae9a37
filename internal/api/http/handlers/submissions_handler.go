package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/desaconnect/complaint-service/internal/api/dto"
	"github.com/desaconnect/complaint-service/internal/service"
	apperrors "github.com/desaconnect/complaint-service/pkg/util/errorutil"
)

// SubmissionsHandler serves the public submission and tracking flow.
// Nothing here requires authorization.
type SubmissionsHandler struct {
	service *service.SubmissionService
}

// NewSubmissionsHandler constructs the handler.
func NewSubmissionsHandler(submissionService *service.SubmissionService) *SubmissionsHandler {
	return &SubmissionsHandler{service: submissionService}
}

// Create POST /submissions. Accepts JSON with an optional base64 file,
// or multipart form data with a "file" field.
func (h *SubmissionsHandler) Create(c *fiber.Ctx) error {
	input, err := h.parseCreateRequest(c)
	if err != nil {
		return err
	}

	sub, err := h.service.Create(c.UserContext(), *input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.CreateSubmissionResponse{ReferenceID: sub.ReferenceID},
	})
}

// Track GET /submissions/track/:code. The reference code is the only
// identifier a citizen ever needs.
func (h *SubmissionsHandler) Track(c *fiber.Ctx) error {
	sub, err := h.service.GetByReferenceID(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTrackingResponse(sub)})
}

func (h *SubmissionsHandler) parseCreateRequest(c *fiber.Ctx) (*service.SubmissionCreateInput, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		input := &service.SubmissionCreateInput{
			Name:        c.FormValue("name"),
			ContactInfo: c.FormValue("contact_info"),
			Category:    c.FormValue("category"),
			Description: c.FormValue("description"),
		}
		fileHeader, err := c.FormFile("file")
		if err == nil && fileHeader != nil {
			file, err := fileHeader.Open()
			if err != nil {
				return nil, apperrors.NewValidationError("unreadable file upload", nil)
			}
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return nil, apperrors.NewValidationError("unreadable file upload", nil)
			}
			input.Attachment = &service.AttachmentInput{
				Data:        data,
				ContentType: fileHeader.Header.Get("Content-Type"),
			}
		}
		return input, nil
	}

	var req dto.CreateSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	input := &service.SubmissionCreateInput{
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.FileBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.FileBase64)
		if err != nil {
			return nil, apperrors.NewValidationError("file_base64 is not valid base64", nil)
		}
		input.Attachment = &service.AttachmentInput{
			Data:        data,
			ContentType: req.FileContentType,
		}
	}
	return input, nil
}
