package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gearbase/pkg/logger"
)

func TestOrgScope(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})

	var captured Scope
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		captured, _ = ScopeFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := OrgScope(log)(next)

	tests := []struct {
		name       string
		orgID      string
		actorID    string
		wantStatus int
	}{
		{"valid identity", "64a0000000000000000000aa", "64a0000000000000000000cc", http.StatusOK},
		{"missing org header", "", "64a0000000000000000000cc", http.StatusUnauthorized},
		{"missing actor header", "64a0000000000000000000aa", "", http.StatusUnauthorized},
		{"malformed org id", "not-hex", "64a0000000000000000000cc", http.StatusUnauthorized},
		{"short org id", "64a0", "64a0000000000000000000cc", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
			if tt.orgID != "" {
				req.Header.Set(HeaderOrgID, tt.orgID)
			}
			if tt.actorID != "" {
				req.Header.Set(HeaderActorID, tt.actorID)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized && reached {
				t.Error("rejected request must not reach the application handler")
			}
		})
	}

	if captured.OrganizationID != "64a0000000000000000000aa" || captured.ActorID != "64a0000000000000000000cc" {
		t.Errorf("scope not propagated, got %+v", captured)
	}
}

func TestScopeFrom_AbsentContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := ScopeFrom(req.Context()); ok {
		t.Error("expected no scope on a bare context")
	}
}
