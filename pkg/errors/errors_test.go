package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestConstructorCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFoundWithID("Booking", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusBadRequest},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("no identity"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("wrong tenant"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("window taken"), CodeConflict, http.StatusConflict},
		{"state transition", StateTransition("draft", "completed"), CodeStateTransition, http.StatusConflict},
		{"internal", Internal("boom", errors.New("cause")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestStateTransition_Details(t *testing.T) {
	err := StateTransition("completed", "cancelled")
	if err.Details["from"] != "completed" || err.Details["to"] != "cancelled" {
		t.Errorf("details must name both endpoints, got %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("taken")
	if got := AsAppError(appErr); got != appErr {
		t.Error("AsAppError must pass through an AppError unchanged")
	}

	wrapped := AsAppError(errors.New("plain"))
	if wrapped.Code != CodeInternal {
		t.Errorf("plain errors must wrap as %s, got %s", CodeInternal, wrapped.Code)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := Internal("store failed", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause must be reachable through errors.Is")
	}
}
