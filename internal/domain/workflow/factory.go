package workflow

// BuildAppealStateMachine creates a state machine configured for the
// cancellation appeal workflow, starting from the given state.
func BuildAppealStateMachine(initialState State) StateMachine {
	builder := NewBuilder()

	// submitted: review can start, documents be requested, the case
	// escalated, or the appeal denied outright. Approval requires review.
	builder.Configure(StateSubmitted).
		Permit(TriggerStartReview, StateUnderReview).
		Permit(TriggerRequestDocuments, StateAwaitingDocuments).
		Permit(TriggerEscalate, StateEscalated).
		Permit(TriggerDeny, StateDenied)

	builder.Configure(StateUnderReview).
		Permit(TriggerRequestDocuments, StateAwaitingDocuments).
		Permit(TriggerEscalate, StateEscalated).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerPartiallyApprove, StatePartiallyApproved).
		Permit(TriggerDeny, StateDenied)

	builder.Configure(StateAwaitingDocuments).
		Permit(TriggerStartReview, StateUnderReview).
		Permit(TriggerEscalate, StateEscalated).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerPartiallyApprove, StatePartiallyApproved).
		Permit(TriggerDeny, StateDenied)

	// escalated cases return to review or resolve; documents are gathered
	// before escalation, not after.
	builder.Configure(StateEscalated).
		Permit(TriggerStartReview, StateUnderReview).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerPartiallyApprove, StatePartiallyApproved).
		Permit(TriggerDeny, StateDenied)

	// approved, partially_approved and denied are terminal

	return builder.Build(initialState)
}
