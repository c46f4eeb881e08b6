package workflow

// State represents a workflow state in the appeal lifecycle
type State string

const (
	StateSubmitted         State = "submitted"
	StateUnderReview       State = "under_review"
	StateAwaitingDocuments State = "awaiting_documents"
	StateEscalated         State = "escalated"
	StateApproved          State = "approved"
	StatePartiallyApproved State = "partially_approved"
	StateDenied            State = "denied"
)

var validStates = map[State]bool{
	StateSubmitted:         true,
	StateUnderReview:       true,
	StateAwaitingDocuments: true,
	StateEscalated:         true,
	StateApproved:          true,
	StatePartiallyApproved: true,
	StateDenied:            true,
}

var terminalStates = map[State]bool{
	StateApproved:          true,
	StatePartiallyApproved: true,
	StateDenied:            true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}
