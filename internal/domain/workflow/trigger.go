package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerStartReview      Trigger = "START_REVIEW"
	TriggerRequestDocuments Trigger = "REQUEST_DOCUMENTS"
	TriggerEscalate         Trigger = "ESCALATE"
	TriggerApprove          Trigger = "APPROVE"
	TriggerPartiallyApprove Trigger = "PARTIALLY_APPROVE"
	TriggerDeny             Trigger = "DENY"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// TriggerForState maps a target appeal state to the trigger that reaches it.
// The second return is false for states that are never transition targets.
func TriggerForState(target State) (Trigger, bool) {
	switch target {
	case StateUnderReview:
		return TriggerStartReview, true
	case StateAwaitingDocuments:
		return TriggerRequestDocuments, true
	case StateEscalated:
		return TriggerEscalate, true
	case StateApproved:
		return TriggerApprove, true
	case StatePartiallyApproved:
		return TriggerPartiallyApprove, true
	case StateDenied:
		return TriggerDeny, true
	default:
		return "", false
	}
}
