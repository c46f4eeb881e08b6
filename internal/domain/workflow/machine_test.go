package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateSubmitted, false},
		{StateUnderReview, false},
		{StateAwaitingDocuments, false},
		{StateEscalated, false},
		{StateApproved, true},
		{StatePartiallyApproved, true},
		{StateDenied, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"valid state", StateSubmitted, true},
		{"valid state", StateDenied, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTriggerForState(t *testing.T) {
	tests := []struct {
		target  State
		trigger Trigger
		ok      bool
	}{
		{StateUnderReview, TriggerStartReview, true},
		{StateAwaitingDocuments, TriggerRequestDocuments, true},
		{StateEscalated, TriggerEscalate, true},
		{StateApproved, TriggerApprove, true},
		{StatePartiallyApproved, TriggerPartiallyApprove, true},
		{StateDenied, TriggerDeny, true},
		{StateSubmitted, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			trigger, ok := TriggerForState(tt.target)
			if ok != tt.ok || trigger != tt.trigger {
				t.Errorf("TriggerForState(%s) = (%s, %v), want (%s, %v)",
					tt.target, trigger, ok, tt.trigger, tt.ok)
			}
		})
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateSubmitted)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	config2 := builder.Configure(StateSubmitted)
	if config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestStateMachine_Fire(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		Permit(TriggerStartReview, StateUnderReview)

	machine := builder.Build(StateSubmitted)

	if !machine.CanFire(TriggerStartReview) {
		t.Error("CanFire() should return true for permitted trigger")
	}
	if machine.CanFire(TriggerApprove) {
		t.Error("CanFire() should return false for unpermitted trigger")
	}

	if err := machine.Fire(context.Background(), TriggerStartReview); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if machine.State() != StateUnderReview {
		t.Errorf("State() = %v, want %v", machine.State(), StateUnderReview)
	}
}

func TestStateMachine_FireInvalidTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		Permit(TriggerStartReview, StateUnderReview)

	machine := builder.Build(StateSubmitted)

	err := machine.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
	}
	if machine.State() != StateSubmitted {
		t.Errorf("State() changed on failed transition: %v", machine.State())
	}
}

func TestStateMachine_FireFromUnconfiguredState(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		Permit(TriggerDeny, StateDenied)

	machine := builder.Build(StateSubmitted)
	if err := machine.Fire(context.Background(), TriggerDeny); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}

	// denied is terminal and has no configuration
	err := machine.Fire(context.Background(), TriggerStartReview)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() from terminal state error = %v, want ErrInvalidTransition", err)
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		Permit(TriggerStartReview, StateUnderReview).
		Permit(TriggerDeny, StateDenied)

	machine := builder.Build(StateSubmitted)

	triggers := machine.PermittedTriggers()
	if len(triggers) != 2 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}
}

func TestBuilder_BuildIsolatesConfiguration(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		Permit(TriggerStartReview, StateUnderReview)

	machine := builder.Build(StateSubmitted)

	// Mutating the builder after Build must not affect the machine
	builder.Configure(StateSubmitted).
		Permit(TriggerApprove, StateApproved)

	if machine.CanFire(TriggerApprove) {
		t.Error("machine should not see transitions added after Build()")
	}
}
