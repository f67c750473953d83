package service

import "gearbase/pkg/model"

// transitions is the full lifecycle graph. Completed and cancelled have no
// outgoing edges; everything else funnels toward them. Skipping a stage
// (draft straight to checked_out) is not representable.
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.StatusDraft:      {model.StatusReserved, model.StatusCancelled},
	model.StatusReserved:   {model.StatusCheckedOut, model.StatusCancelled},
	model.StatusCheckedOut: {model.StatusCompleted, model.StatusCancelled},
	model.StatusCompleted:  {},
	model.StatusCancelled:  {},
}

func canTransition(from, to model.BookingStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionTargets returns the statuses reachable from the given one.
func TransitionTargets(from model.BookingStatus) []model.BookingStatus {
	targets := transitions[from]
	out := make([]model.BookingStatus, len(targets))
	copy(out, targets)
	return out
}
