package event

// Type identifies the type of domain event
type Type string

const (
	TypeAppealSubmitted     Type = "appeal.submitted"
	TypeAppealAssigned      Type = "appeal.assigned"
	TypeAppealStatusChanged Type = "appeal.status_changed"
	TypeAppealResolved      Type = "appeal.resolved"
	TypeAdjustmentResolved  Type = "adjustment.resolved"
	TypeRefundCompleted     Type = "money.refund_completed"
	TypePayoutCompleted     Type = "money.payout_completed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeAppealSubmitted,
		TypeAppealAssigned,
		TypeAppealStatusChanged,
		TypeAppealResolved,
		TypeAdjustmentResolved,
		TypeRefundCompleted,
		TypePayoutCompleted:
		return true
	default:
		return false
	}
}
