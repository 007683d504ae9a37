package events

import (
	"time"

	"github.com/desaconnect/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSubmissionCreated         EventType = "submission_created"
	EventSubmissionStatusChanged   EventType = "submission_status_changed"
	EventSubmissionPriorityChanged EventType = "submission_priority_changed"
	EventSubmissionCommentAdded    EventType = "submission_comment_added"
	EventSubmissionAssigned        EventType = "submission_assigned"
	EventAdminAdded                EventType = "admin_added"
	EventAdminRemoved              EventType = "admin_removed"
)

// PublicActor marks events triggered by an unauthenticated submitter.
const PublicActor = "public"

// Event represents a domain event emitted by services. Actor is the
// admin email responsible, or PublicActor for citizen-initiated events.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	SubmissionID string      `json:"submission_id,omitempty"`
	Actor        string      `json:"actor"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// SubmissionCreatedPayload payload.
type SubmissionCreatedPayload struct {
	ReferenceID string                    `json:"reference_id"`
	Category    string                    `json:"category"`
	Priority    domain.SubmissionPriority `json:"priority"`
	HasFile     bool                      `json:"has_file"`
}

// SubmissionStatusChangedPayload payload.
type SubmissionStatusChangedPayload struct {
	OldStatus domain.SubmissionStatus `json:"old_status"`
	NewStatus domain.SubmissionStatus `json:"new_status"`
}

// SubmissionPriorityChangedPayload payload.
type SubmissionPriorityChangedPayload struct {
	OldPriority domain.SubmissionPriority `json:"old_priority"`
	NewPriority domain.SubmissionPriority `json:"new_priority"`
}

// SubmissionCommentAddedPayload payload.
type SubmissionCommentAddedPayload struct {
	Author      string `json:"author"`
	TextPreview string `json:"text_preview"`
}

// SubmissionAssignedPayload payload.
type SubmissionAssignedPayload struct {
	AssignedTo *string `json:"assigned_to,omitempty"`
}

// AdminRosterPayload payload for roster add/remove events.
type AdminRosterPayload struct {
	Email string `json:"email"`
}
