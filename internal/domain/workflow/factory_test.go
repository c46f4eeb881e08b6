package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// allowedTransitions is the authoritative transition table for appeals.
var allowedTransitions = map[State][]State{
	StateSubmitted:         {StateUnderReview, StateAwaitingDocuments, StateEscalated, StateDenied},
	StateUnderReview:       {StateAwaitingDocuments, StateEscalated, StateApproved, StatePartiallyApproved, StateDenied},
	StateAwaitingDocuments: {StateUnderReview, StateEscalated, StateApproved, StatePartiallyApproved, StateDenied},
	StateEscalated:         {StateUnderReview, StateApproved, StatePartiallyApproved, StateDenied},
	StateApproved:          {},
	StatePartiallyApproved: {},
	StateDenied:            {},
}

// TestBuildAppealStateMachine_FullMatrix exercises every (from, to) pair:
// pairs in the table succeed, every other pair fails with ErrInvalidTransition.
func TestBuildAppealStateMachine_FullMatrix(t *testing.T) {
	allStates := []State{
		StateSubmitted, StateUnderReview, StateAwaitingDocuments,
		StateEscalated, StateApproved, StatePartiallyApproved, StateDenied,
	}

	for _, from := range allStates {
		for _, to := range allStates {
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				trigger, ok := TriggerForState(to)
				if !ok {
					// submitted is never a transition target
					if to != StateSubmitted {
						t.Fatalf("no trigger for target state %s", to)
					}
					return
				}

				machine := BuildAppealStateMachine(from)
				err := machine.Fire(context.Background(), trigger)

				if contains(allowedTransitions[from], to) {
					if err != nil {
						t.Errorf("Fire(%s) from %s error = %v, want success", trigger, from, err)
					}
					if machine.State() != to {
						t.Errorf("State() = %v, want %v", machine.State(), to)
					}
				} else {
					if !errors.Is(err, ErrInvalidTransition) {
						t.Errorf("Fire(%s) from %s error = %v, want ErrInvalidTransition", trigger, from, err)
					}
					if machine.State() != from {
						t.Errorf("State() changed on rejected transition: %v", machine.State())
					}
				}
			})
		}
	}
}

func TestBuildAppealStateMachine_TerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []State{StateApproved, StatePartiallyApproved, StateDenied} {
		machine := BuildAppealStateMachine(terminal)
		if triggers := machine.PermittedTriggers(); len(triggers) != 0 {
			t.Errorf("terminal state %s permits triggers %v", terminal, triggers)
		}
	}
}

func contains(states []State, s State) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}
