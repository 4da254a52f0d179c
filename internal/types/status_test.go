package types

import (
	"errors"
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusStructured, true},
		{StatusDraft, StatusLocked, false},
		{StatusPatched, StatusLocked, true},
		{StatusLocked, StatusDiagnosed, true},
		{StatusLocked, StatusDraft, false},
		{StatusTested, StatusTested, true},
		{Status("bogus"), Status("bogus"), false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestEveryStatusCanReachLockedThroughPatched(t *testing.T) {
	for _, s := range AllStatuses() {
		if got := s.Advance(StatusPatched).Advance(StatusLocked); got != StatusLocked {
			t.Errorf("%s: patched -> locked path ended at %s", s, got)
		}
	}
}

func TestTransitionRejectsUnknownEdge(t *testing.T) {
	got, err := StatusDraft.Transition(StatusLocked)
	if err == nil {
		t.Fatal("expected an error for draft -> locked")
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("error %v should be a validation error", err)
	}
	if got != StatusDraft {
		t.Errorf("rejected transition returned %s, want draft", got)
	}

	if _, err := StatusDraft.Transition(Status("nope")); err == nil {
		t.Error("expected an error for an unknown target status")
	}
}

func TestAdvanceKeepsStatusOnRejectedEdge(t *testing.T) {
	if got := StatusDraft.Advance(StatusLocked); got != StatusDraft {
		t.Errorf("Advance(draft -> locked) = %s, want draft", got)
	}
}
