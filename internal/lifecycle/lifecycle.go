// Package lifecycle holds the order preparation state machine.
package lifecycle

import "qr-kitchen/internal/model"

// transitions is the adjacency table: forward edges, one-step-back edges,
// and cancellation from the first two states. Terminal states have no
// outgoing edges.
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.StatusPending:         {model.StatusPreparing, model.StatusCancelled},
	model.StatusPreparing:       {model.StatusReady, model.StatusPending, model.StatusCancelled},
	model.StatusReady:           {model.StatusServed, model.StatusPreparing},
	model.StatusServed:          {model.StatusAwaitingPayment, model.StatusReady},
	model.StatusAwaitingPayment: {model.StatusCompleted, model.StatusServed},
	model.StatusCompleted:       {},
	model.StatusCancelled:       {},
}

// Transition validates moving an order from current to requested and
// returns the new status. It performs no I/O.
func Transition(current, requested model.OrderStatus) (model.OrderStatus, error) {
	for _, next := range transitions[current] {
		if next == requested {
			return next, nil
		}
	}
	return "", model.ErrInvalidTransition
}

// Allowed returns the statuses reachable from current in one step.
func Allowed(current model.OrderStatus) []model.OrderStatus {
	next := transitions[current]
	out := make([]model.OrderStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(s model.OrderStatus) bool {
	next, known := transitions[s]
	return known && len(next) == 0
}
