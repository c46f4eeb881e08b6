package entity

import "time"

// Appeal status constants. Transitions between them are validated by the
// state machine in internal/domain/workflow.
type AppealStatus string

const (
	AppealStatusSubmitted         AppealStatus = "submitted"
	AppealStatusUnderReview       AppealStatus = "under_review"
	AppealStatusAwaitingDocuments AppealStatus = "awaiting_documents"
	AppealStatusEscalated         AppealStatus = "escalated"
	AppealStatusApproved          AppealStatus = "approved"
	AppealStatusPartiallyApproved AppealStatus = "partially_approved"
	AppealStatusDenied            AppealStatus = "denied"
)

var appealTerminalStatuses = map[AppealStatus]bool{
	AppealStatusApproved:          true,
	AppealStatusPartiallyApproved: true,
	AppealStatusDenied:            true,
}

// IsTerminal returns true once the appeal has been resolved; terminal
// appeals are immutable.
func (s AppealStatus) IsTerminal() bool {
	return appealTerminalStatuses[s]
}

// String returns the string representation of the status.
func (s AppealStatus) String() string {
	return string(s)
}

// ContestedItem is one line item the appealer disputes.
type ContestedItem struct {
	Label       string `json:"label"`
	AmountCents int64  `json:"amount_cents"`
}

// Appeal is a formal contest of a cancellation penalty on an appointment.
// At most one open appeal may exist per appointment.
type Appeal struct {
	ID            int64          `json:"id"`
	AppointmentID int64          `json:"appointment_id"`
	AppealerID    int64          `json:"appealer_id"`
	AppealerRole  Role           `json:"appealer_role"`
	Category      AppealCategory `json:"category"`
	Severity      Severity       `json:"severity"`
	Description   string         `json:"description"`
	Status        AppealStatus   `json:"status"`
	Priority      Priority       `json:"priority"`

	// ContestedItems is stored as a JSON array of ContestedItem.
	ContestedItems string `json:"contested_items,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
	// SLADeadline is fixed at submission time and never recomputed.
	SLADeadline time.Time `json:"sla_deadline"`

	AssignedTo *int64 `json:"assigned_to,omitempty"`
	ReviewedBy *int64 `json:"reviewed_by,omitempty"`

	// Resolution payload, set once when the appeal reaches a terminal state.
	Decision          Decision   `json:"decision,omitempty"`
	ResolutionActions string     `json:"resolution_actions,omitempty"`
	ResolutionNotes   string     `json:"resolution_notes,omitempty"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPastSLA reports whether the appeal has outlived its review deadline.
func (a *Appeal) IsPastSLA(now time.Time) bool {
	return now.After(a.SLADeadline)
}

// AppealWindow is how long after cancellation an appeal may be submitted.
const AppealWindow = 72 * time.Hour

// AppealSLA is the review deadline offset applied at submission.
const AppealSLA = 48 * time.Hour

// ComputePriority derives the queue priority of a new appeal from the
// appealer's scrutiny level and the declared severity. Rules are ordered:
// high-risk users are pinned to high priority even for critical severity so
// suspected abusers cannot force themselves to the front of the queue.
func ComputePriority(level ScrutinyLevel, severity Severity) Priority {
	switch {
	case level == ScrutinyHighRisk:
		return PriorityHigh
	case severity == SeverityCritical:
		return PriorityUrgent
	case severity == SeverityHigh, level == ScrutinyWatch:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}
