package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/desaconnect/complaint-service/internal/domain"
	"github.com/desaconnect/complaint-service/internal/events"
	"github.com/desaconnect/complaint-service/internal/refcode"
	"github.com/desaconnect/complaint-service/internal/repository"
	"github.com/desaconnect/complaint-service/internal/storage"
	apperrors "github.com/desaconnect/complaint-service/pkg/util/errorutil"
)

const (
	descriptionMinLen = 10
	descriptionMaxLen = 1000

	// reference-code collisions are retried server-side; with a 36^8
	// code space three attempts are effectively certain to succeed
	refcodeAttempts = 3
)

var allowedAttachmentTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// AttachmentInput carries an uploaded file.
type AttachmentInput struct {
	Data        []byte
	ContentType string
}

// SubmissionCreateInput describes the public submission payload.
type SubmissionCreateInput struct {
	Name        string
	ContactInfo string
	Category    string
	Description string
	Attachment  *AttachmentInput
}

// SubmissionListInput describes admin listing parameters.
type SubmissionListInput struct {
	Status   string
	Category string
	Priority string
	Search   string
	SortAsc  bool
	Page     int
	PageSize int
}

// SubmissionService coordinates the submission lifecycle.
type SubmissionService struct {
	submissions repository.SubmissionRepository
	store       storage.ObjectStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	maxUpload   int64
}

// SubmissionDependencies bundles requirements for the service.
type SubmissionDependencies struct {
	SubmissionRepo repository.SubmissionRepository
	ObjectStore    storage.ObjectStore
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	MaxUploadBytes int64
}

// NewSubmissionService constructs the service.
func NewSubmissionService(deps SubmissionDependencies) *SubmissionService {
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	return &SubmissionService{
		submissions: deps.SubmissionRepo,
		store:       deps.ObjectStore,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		maxUpload:   maxUpload,
	}
}

// Create validates and persists a citizen submission, returning the
// record with its freshly issued reference code. Attachment storage
// failure aborts the whole creation.
func (s *SubmissionService) Create(ctx context.Context, input SubmissionCreateInput) (*domain.Submission, error) {
	description := strings.TrimSpace(input.Description)
	category := strings.TrimSpace(input.Category)

	if n := len([]rune(description)); n < descriptionMinLen || n > descriptionMaxLen {
		return nil, apperrors.NewValidationError(
			"description must be between 10 and 1000 characters",
			map[string]any{"length": n},
		)
	}
	if category == "" {
		return nil, apperrors.NewValidationError("category is required", nil)
	}

	var fileURL *string
	if input.Attachment != nil {
		if int64(len(input.Attachment.Data)) > s.maxUpload {
			return nil, apperrors.NewValidationError(
				"file exceeds the maximum allowed size",
				map[string]any{"max_bytes": s.maxUpload},
			)
		}
		if _, ok := allowedAttachmentTypes[input.Attachment.ContentType]; !ok {
			return nil, apperrors.NewValidationError(
				"file type not allowed; accepted: jpeg, png, pdf, doc, docx",
				map[string]any{"content_type": input.Attachment.ContentType},
			)
		}
		url, err := s.store.Store(ctx, input.Attachment.Data, input.Attachment.ContentType)
		if err != nil {
			s.logger.Error("attachment store failed", zap.Error(err))
			return nil, apperrors.NewDependencyFailure(err)
		}
		fileURL = &url
	}

	sub := &domain.Submission{
		Name:             optional(input.Name),
		ContactInfo:      optional(input.ContactInfo),
		Category:         category,
		Description:      description,
		FileURL:          fileURL,
		Status:           domain.StatusPending,
		Priority:         domain.PriorityRegular,
		InternalComments: []domain.InternalComment{},
	}

	var createErr error
	for attempt := 0; attempt < refcodeAttempts; attempt++ {
		sub.ReferenceID = refcode.Generate()
		createErr = s.submissions.Create(ctx, sub)
		if createErr == nil {
			break
		}
		if !errors.Is(createErr, repository.ErrDuplicateReference) {
			s.logger.Error("submission insert failed", zap.Error(createErr))
			return nil, apperrors.NewDependencyFailure(createErr)
		}
	}
	if createErr != nil {
		return nil, apperrors.NewConflict("could not allocate a reference code, please try again", nil)
	}

	s.publish(ctx, events.Event{
		Type:         events.EventSubmissionCreated,
		SubmissionID: sub.ID,
		Actor:        events.PublicActor,
		Payload: events.SubmissionCreatedPayload{
			ReferenceID: sub.ReferenceID,
			Category:    sub.Category,
			Priority:    sub.Priority,
			HasFile:     fileURL != nil,
		},
	})
	return sub, nil
}

// GetByReferenceID serves the public tracking flow. No authorization.
func (s *SubmissionService) GetByReferenceID(ctx context.Context, code string) (*domain.Submission, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperrors.NewValidationError("reference code is required", nil)
	}
	sub, err := s.submissions.GetByReferenceID(ctx, code)
	if err != nil {
		return nil, mapStoreError(err, "submission")
	}
	return sub, nil
}

// GetByID serves admin detail views.
func (s *SubmissionService) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "submission")
	}
	return sub, nil
}

// List returns a filtered, paginated page plus the filtered total.
func (s *SubmissionService) List(ctx context.Context, input SubmissionListInput) ([]domain.Submission, int, error) {
	filter := repository.SubmissionFilter{
		SortAsc:  input.SortAsc,
		Page:     input.Page,
		PageSize: input.PageSize,
	}
	if input.Status != "" {
		status, err := ParseStatus(input.Status)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = &status
	}
	if input.Priority != "" {
		priority, err := ParsePriority(input.Priority)
		if err != nil {
			return nil, 0, err
		}
		filter.Priority = &priority
	}
	if category := strings.TrimSpace(input.Category); category != "" {
		filter.Category = &category
	}
	if search := strings.TrimSpace(input.Search); search != "" {
		filter.Search = &search
	}

	items, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.NewDependencyFailure(err)
	}
	return items, total, nil
}

// UpdateStatus transitions a submission's status.
func (s *SubmissionService) UpdateStatus(ctx context.Context, id, statusInput, actor string) (*domain.Submission, error) {
	status, err := ParseStatus(statusInput)
	if err != nil {
		return nil, err
	}
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "submission")
	}
	oldStatus := sub.Status
	if err := s.submissions.UpdateStatus(ctx, id, status, actor); err != nil {
		return nil, mapStoreError(err, "submission")
	}
	sub.Status = status
	sub.LastUpdatedBy = &actor

	s.publish(ctx, events.Event{
		Type:         events.EventSubmissionStatusChanged,
		SubmissionID: id,
		Actor:        actor,
		Payload: events.SubmissionStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
	return sub, nil
}

// UpdatePriority changes a submission's triage priority.
func (s *SubmissionService) UpdatePriority(ctx context.Context, id, priorityInput, actor string) (*domain.Submission, error) {
	priority, err := ParsePriority(priorityInput)
	if err != nil {
		return nil, err
	}
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "submission")
	}
	oldPriority := sub.Priority
	if err := s.submissions.UpdatePriority(ctx, id, priority, actor); err != nil {
		return nil, mapStoreError(err, "submission")
	}
	sub.Priority = priority
	sub.LastUpdatedBy = &actor

	s.publish(ctx, events.Event{
		Type:         events.EventSubmissionPriorityChanged,
		SubmissionID: id,
		Actor:        actor,
		Payload: events.SubmissionPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: priority,
		},
	})
	return sub, nil
}

// AppendComment adds an internal comment to the end of the thread.
// Read-modify-write without optimistic locking: two admins commenting
// at the same instant can lose one comment. Accepted at this scale.
func (s *SubmissionService) AppendComment(ctx context.Context, id, text, author string) (*domain.Submission, error) {
	text = strings.TrimSpace(text)
	author = strings.TrimSpace(author)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text is required", nil)
	}
	if author == "" {
		return nil, apperrors.NewValidationError("comment author is required", nil)
	}

	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "submission")
	}
	comments := append(sub.InternalComments, domain.InternalComment{
		Text:      text,
		Author:    author,
		CreatedAt: time.Now().UTC(),
	})
	if err := s.submissions.UpdateComments(ctx, id, comments, author); err != nil {
		return nil, mapStoreError(err, "submission")
	}
	sub.InternalComments = comments
	sub.LastUpdatedBy = &author

	s.publish(ctx, events.Event{
		Type:         events.EventSubmissionCommentAdded,
		SubmissionID: id,
		Actor:        author,
		Payload: events.SubmissionCommentAddedPayload{
			Author:      author,
			TextPreview: preview(text, 120),
		},
	})
	return sub, nil
}

// Assign sets or clears the responsible admin for a submission.
func (s *SubmissionService) Assign(ctx context.Context, id string, assignee *string, actor string) (*domain.Submission, error) {
	if err := s.submissions.UpdateAssignee(ctx, id, assignee, actor); err != nil {
		return nil, mapStoreError(err, "submission")
	}
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "submission")
	}

	s.publish(ctx, events.Event{
		Type:         events.EventSubmissionAssigned,
		SubmissionID: id,
		Actor:        actor,
		Payload:      events.SubmissionAssignedPayload{AssignedTo: assignee},
	})
	return sub, nil
}

// Delete removes a submission. Admin back-office affordance only.
func (s *SubmissionService) Delete(ctx context.Context, id, actor string) error {
	if err := s.submissions.Delete(ctx, id); err != nil {
		return mapStoreError(err, "submission")
	}
	s.logger.Info("submission deleted", zap.String("id", id), zap.String("actor", actor))
	return nil
}

// ParseStatus normalizes case-insensitive status input to the stored
// lowercase form.
func ParseStatus(input string) (domain.SubmissionStatus, error) {
	status := domain.SubmissionStatus(strings.ToLower(strings.TrimSpace(input)))
	if !status.Valid() {
		return "", apperrors.NewValidationError(
			"status must be one of: pending, in progress, resolved",
			map[string]any{"status": input},
		)
	}
	return status, nil
}

// ParsePriority normalizes case-insensitive priority input to the
// stored canonical form.
func ParsePriority(input string) (domain.SubmissionPriority, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "urgent":
		return domain.PriorityUrgent, nil
	case "regular":
		return domain.PriorityRegular, nil
	}
	return "", apperrors.NewValidationError(
		"priority must be Urgent or Regular",
		map[string]any{"priority": input},
	)
}

func (s *SubmissionService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func mapStoreError(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewDependencyFailure(err)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
