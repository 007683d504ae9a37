package dto

import (
	"time"

	"github.com/desaconnect/complaint-service/internal/domain"
)

// CreateSubmissionRequest is the public submission payload. FileBase64
// carries the attachment when the request is JSON; multipart uploads
// use the "file" form field instead.
type CreateSubmissionRequest struct {
	Name            string `json:"name"`
	ContactInfo     string `json:"contact_info"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	FileBase64      string `json:"file_base64,omitempty"`
	FileContentType string `json:"file_content_type,omitempty"`
}

// CreateSubmissionResponse returns the public reference code.
type CreateSubmissionResponse struct {
	ReferenceID string `json:"reference_id"`
}

// TrackingResponse is the public view of a submission. Internal
// comments and admin bookkeeping never appear here.
type TrackingResponse struct {
	ReferenceID string                    `json:"reference_id"`
	Category    string                    `json:"category"`
	Description string                    `json:"description"`
	FileURL     *string                   `json:"file_url,omitempty"`
	Status      domain.SubmissionStatus   `json:"status"`
	Priority    domain.SubmissionPriority `json:"priority"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// InternalCommentResponse is one entry of the admin comment thread.
type InternalCommentResponse struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionResponse is the admin view of a submission.
type SubmissionResponse struct {
	ID               string                    `json:"id"`
	ReferenceID      string                    `json:"reference_id"`
	Name             *string                   `json:"name,omitempty"`
	ContactInfo      *string                   `json:"contact_info,omitempty"`
	Category         string                    `json:"category"`
	Description      string                    `json:"description"`
	FileURL          *string                   `json:"file_url,omitempty"`
	Status           domain.SubmissionStatus   `json:"status"`
	Priority         domain.SubmissionPriority `json:"priority"`
	InternalComments []InternalCommentResponse `json:"internal_comments"`
	AssignedTo       *string                   `json:"assigned_to,omitempty"`
	LastUpdatedBy    *string                   `json:"last_updated_by,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// SubmissionListResponse is one page plus the filtered total.
type SubmissionListResponse struct {
	Items    []SubmissionResponse `json:"items"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority string `json:"priority"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Text string `json:"text"`
}

// AssignRequest payload; a null assigned_to clears the assignment.
type AssignRequest struct {
	AssignedTo *string `json:"assigned_to"`
}

// NewTrackingResponse maps a submission to its public view.
func NewTrackingResponse(sub *domain.Submission) TrackingResponse {
	return TrackingResponse{
		ReferenceID: sub.ReferenceID,
		Category:    sub.Category,
		Description: sub.Description,
		FileURL:     sub.FileURL,
		Status:      sub.Status,
		Priority:    sub.Priority,
		CreatedAt:   sub.CreatedAt,
		UpdatedAt:   sub.UpdatedAt,
	}
}

// NewSubmissionResponse maps a submission to its admin view.
func NewSubmissionResponse(sub *domain.Submission) SubmissionResponse {
	comments := make([]InternalCommentResponse, 0, len(sub.InternalComments))
	for _, comment := range sub.InternalComments {
		comments = append(comments, InternalCommentResponse{
			Text:      comment.Text,
			Author:    comment.Author,
			CreatedAt: comment.CreatedAt,
		})
	}
	return SubmissionResponse{
		ID:               sub.ID,
		ReferenceID:      sub.ReferenceID,
		Name:             sub.Name,
		ContactInfo:      sub.ContactInfo,
		Category:         sub.Category,
		Description:      sub.Description,
		FileURL:          sub.FileURL,
		Status:           sub.Status,
		Priority:         sub.Priority,
		InternalComments: comments,
		AssignedTo:       sub.AssignedTo,
		LastUpdatedBy:    sub.LastUpdatedBy,
		CreatedAt:        sub.CreatedAt,
		UpdatedAt:        sub.UpdatedAt,
	}
}
