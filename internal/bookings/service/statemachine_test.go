package service

import (
	"testing"

	"gearbase/pkg/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    model.BookingStatus
		to      model.BookingStatus
		allowed bool
	}{
		{"draft to reserved", model.StatusDraft, model.StatusReserved, true},
		{"draft to cancelled", model.StatusDraft, model.StatusCancelled, true},
		{"reserved to checked_out", model.StatusReserved, model.StatusCheckedOut, true},
		{"reserved to cancelled", model.StatusReserved, model.StatusCancelled, true},
		{"checked_out to completed", model.StatusCheckedOut, model.StatusCompleted, true},
		{"checked_out to cancelled", model.StatusCheckedOut, model.StatusCancelled, true},

		{"draft cannot skip to checked_out", model.StatusDraft, model.StatusCheckedOut, false},
		{"draft cannot skip to completed", model.StatusDraft, model.StatusCompleted, false},
		{"reserved cannot complete without checkout", model.StatusReserved, model.StatusCompleted, false},
		{"reserved cannot regress to draft", model.StatusReserved, model.StatusDraft, false},
		{"checked_out cannot regress to reserved", model.StatusCheckedOut, model.StatusReserved, false},
		{"completed is terminal", model.StatusCompleted, model.StatusCancelled, false},
		{"cancelled is terminal", model.StatusCancelled, model.StatusReserved, false},
		{"cancelled cannot be uncancelled", model.StatusCancelled, model.StatusDraft, false},
		{"no self transition", model.StatusReserved, model.StatusReserved, false},
		{"unknown status has no edges", model.BookingStatus("bogus"), model.StatusReserved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("canTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestTransitionTargets_TerminalStatusesHaveNone(t *testing.T) {
	for _, status := range []model.BookingStatus{model.StatusCompleted, model.StatusCancelled} {
		if targets := TransitionTargets(status); len(targets) != 0 {
			t.Errorf("expected no targets from %s, got %v", status, targets)
		}
	}
}
