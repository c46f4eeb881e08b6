package entity

import "time"

// AuditEventType enumerates the recorded workflow and money-movement events.
type AuditEventType string

const (
	AuditAppealSubmitted     AuditEventType = "appeal_submitted"
	AuditAppealAssigned      AuditEventType = "appeal_assigned"
	AuditAppealStatusChanged AuditEventType = "appeal_status_changed"
	AuditAppealResolved      AuditEventType = "appeal_resolved"
	AuditAdjustmentResolved  AuditEventType = "adjustment_resolved"
	AuditRefundCompleted     AuditEventType = "refund_completed"
	AuditRefundFailed        AuditEventType = "refund_failed"
	AuditPayoutCompleted     AuditEventType = "payout_completed"
	AuditPayoutFailed        AuditEventType = "payout_failed"
	AuditActionFailed        AuditEventType = "resolution_action_failed"
)

// AuditEvent is a write-once record of something that happened to a case.
// Events are never updated or deleted.
type AuditEvent struct {
	ID            int64          `json:"id"`
	AppointmentID *int64         `json:"appointment_id,omitempty"`
	CaseID        *int64         `json:"case_id,omitempty"`
	CaseType      CaseType       `json:"case_type,omitempty"`
	EventType     AuditEventType `json:"event_type"`

	// Actor is nil for system-generated events.
	ActorID   *int64 `json:"actor_id,omitempty"`
	ActorRole Role   `json:"actor_role,omitempty"`

	// EventData is an opaque JSON payload.
	EventData string `json:"event_data,omitempty"`

	PreviousState string `json:"previous_state,omitempty"`
	NewState      string `json:"new_state,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
	RequestID  string    `json:"request_id,omitempty"`
}

// AuditFilter narrows audit trail searches.
type AuditFilter struct {
	AppointmentID *int64
	CaseID        *int64
	CaseType      CaseType
	EventType     AuditEventType
	ActorID       *int64
	From          *time.Time
	To            *time.Time
	Text          string
	Limit         int
	Offset        int
}
