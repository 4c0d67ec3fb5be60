package scheduling

import (
	"fmt"

	"clinicflow/pkg/model"
)

var transitions = map[model.Status][]model.Status{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusCancelled, model.StatusNoShow},
	model.StatusCancelled: nil,
	model.StatusCompleted: nil,
	model.StatusNoShow:    nil,
}

// InvalidTransitionError is returned for any status change off the graph.
type InvalidTransitionError struct {
	From model.Status
	To   model.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

func ValidStatus(s model.Status) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether from -> to is an edge of the state machine.
// Staying in the same status is not a transition.
func CanTransition(from, to model.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the statuses reachable from s in one step.
func AllowedTransitions(s model.Status) []model.Status {
	out := make([]model.Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

func IsTerminal(s model.Status) bool {
	return ValidStatus(s) && len(transitions[s]) == 0
}

// Transition checks the edge and returns the history entry to record.
func Transition(from, to model.Status, at TimeSource) (model.StatusTransition, error) {
	if !CanTransition(from, to) {
		return model.StatusTransition{}, &InvalidTransitionError{From: from, To: to}
	}
	return model.StatusTransition{From: from, To: to, At: at()}, nil
}
