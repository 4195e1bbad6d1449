package domain

import (
	"fmt"
	"slices"
)

// ActionKind names a user action applied to an entity lifecycle.
type ActionKind string

const (
	ActionApprove             ActionKind = "approve"
	ActionReject              ActionKind = "reject"
	ActionSubmitDocuments     ActionKind = "submitDocuments"
	ActionApproveVerification ActionKind = "approveVerification"
	ActionRejectVerification  ActionKind = "rejectVerification"
	ActionAccept              ActionKind = "accept"
	ActionPay                 ActionKind = "pay"
	ActionRequestPayout       ActionKind = "requestPayout"
)

// Action is an ActionKind plus its payload. Only rejections carry a reason.
type Action struct {
	Kind   ActionKind
	Reason string
}

// reasonRequired lists the actions that cannot be submitted without a reason.
var reasonRequired = map[ActionKind]bool{
	ActionReject:             true,
	ActionRejectVerification: true,
}

// Machine is a pure lifecycle: a table of (state, action) -> next state.
type Machine[S ~string] struct {
	Name        string
	transitions map[S]map[ActionKind]S
}

// Transition returns the state reached by applying a to from. Actions not
// valid for from fail with ErrInvalidTransition; rejections without a reason
// fail with ErrMissingField.
func (m Machine[S]) Transition(from S, a Action) (S, error) {
	next, ok := m.transitions[from][a.Kind]
	if !ok {
		return from, fmt.Errorf("%s: %w (%s from %s)", m.Name, ErrInvalidTransition, a.Kind, from)
	}
	if reasonRequired[a.Kind] && isBlank(a.Reason) {
		return from, fmt.Errorf("%s: %w: reason", m.Name, ErrMissingField)
	}
	return next, nil
}

// Can reports whether kind is a valid action in state from.
func (m Machine[S]) Can(from S, kind ActionKind) bool {
	_, ok := m.transitions[from][kind]
	return ok
}

// Allowed returns the actions valid in state from, sorted by name.
func (m Machine[S]) Allowed(from S) []ActionKind {
	out := make([]ActionKind, 0, len(m.transitions[from]))
	for kind := range m.transitions[from] {
		out = append(out, kind)
	}
	slices.Sort(out)
	return out
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
