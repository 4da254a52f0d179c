package types

import (
	"fmt"
	"strings"
)

// Status is the lifecycle phase of a project record.
type Status string

// Lifecycle status constants
const (
	StatusDraft      Status = "draft"
	StatusStructured Status = "structured" // Intent and architecture documents exist
	StatusTested     Status = "tested"
	StatusDiagnosed  Status = "diagnosed"
	StatusPatched    Status = "patched"
	StatusLocked     Status = "locked" // A fix was verified and written to the ledger
)

// transitions lists the allowed lifecycle moves. Self transitions are always
// allowed and are not listed.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusStructured, StatusTested, StatusDiagnosed, StatusPatched},
	StatusStructured: {StatusTested, StatusDiagnosed, StatusPatched, StatusDraft},
	StatusTested:     {StatusDiagnosed, StatusPatched, StatusStructured},
	StatusDiagnosed:  {StatusPatched, StatusTested, StatusStructured},
	StatusPatched:    {StatusTested, StatusDiagnosed, StatusLocked},
	StatusLocked:     {StatusDiagnosed, StatusPatched, StatusTested},
}

// AllStatuses returns the lifecycle statuses in phase order.
func AllStatuses() []Status {
	return []Status{StatusDraft, StatusStructured, StatusTested, StatusDiagnosed, StatusPatched, StatusLocked}
}

// IsValid checks if the status value is a known lifecycle phase
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the lifecycle may move from s to next.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return s.IsValid()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next if the move is allowed, otherwise an error naming
// the rejected edge.
func (s Status) Transition(next Status) (Status, error) {
	if !next.IsValid() {
		return s, NewValidationError("status", fmt.Sprintf("invalid status: %s", next))
	}
	if !s.CanTransition(next) {
		return s, NewValidationError("status", fmt.Sprintf("cannot move from %s to %s", s, next))
	}
	return next, nil
}

// Advance moves to next when allowed and otherwise keeps s. Engine operations
// use it so a record whose label is out of step never blocks a computation.
func (s Status) Advance(next Status) Status {
	if s.CanTransition(next) {
		return next
	}
	return s
}

// NormalizeStatus maps a stored free-form label onto a lifecycle status.
// Unknown and empty labels become StatusDraft.
func NormalizeStatus(label string) Status {
	s := Status(strings.ToLower(strings.TrimSpace(label)))
	if s.IsValid() {
		return s
	}
	return StatusDraft
}
