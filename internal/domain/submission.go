package domain

import "time"

// SubmissionStatus enumerates lifecycle states for citizen submissions.
type SubmissionStatus string

const (
	StatusPending    SubmissionStatus = "pending"
	StatusInProgress SubmissionStatus = "in progress"
	StatusResolved   SubmissionStatus = "resolved"
)

// AllStatuses lists every status in reporting order.
var AllStatuses = []SubmissionStatus{StatusPending, StatusInProgress, StatusResolved}

// Valid reports whether the status is one of the known values.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// SubmissionPriority enumerates triage urgency.
type SubmissionPriority string

const (
	PriorityUrgent  SubmissionPriority = "Urgent"
	PriorityRegular SubmissionPriority = "Regular"
)

// Valid reports whether the priority is one of the known values.
func (p SubmissionPriority) Valid() bool {
	return p == PriorityUrgent || p == PriorityRegular
}

// InternalComment is an admin-only annotation on a submission.
// Comments are append-only: never edited, never removed, never reordered.
type InternalComment struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Submission is the aggregate for a citizen-reported complaint.
// ReferenceID is the only identifier exposed to the public caller.
type Submission struct {
	ID               string
	ReferenceID      string
	Name             *string
	ContactInfo      *string
	Category         string
	Description      string
	FileURL          *string
	Status           SubmissionStatus
	Priority         SubmissionPriority
	InternalComments []InternalComment
	AssignedTo       *string
	LastUpdatedBy    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
