package middleware

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"gearbase/pkg/logger"
)

const (
	// Stamped by the upstream auth gateway after session validation. The
	// engine never trusts organization identifiers from request payloads.
	HeaderOrgID   = "X-Org-ID"
	HeaderActorID = "X-Actor-ID"

	ScopeKey contextKey = "org_scope"
)

// Scope identifies the organization and actor every core operation runs as.
// It travels as explicit call parameters from the handlers down, never as
// ambient state inside services.
type Scope struct {
	OrganizationID string
	ActorID        string
}

// OrgScope rejects requests that arrive without a valid tenant identity.
func OrgScope(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID := r.Header.Get(HeaderOrgID)
			actorID := r.Header.Get(HeaderActorID)

			if orgID == "" || actorID == "" {
				rejectScope(w, log, r, "missing organization or actor identity")
				return
			}
			if !validScopeID(orgID) || !validScopeID(actorID) {
				rejectScope(w, log, r, "malformed organization or actor identity")
				return
			}

			ctx := context.WithValue(r.Context(), ScopeKey, Scope{
				OrganizationID: orgID,
				ActorID:        actorID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ScopeFrom extracts the tenant identity placed by OrgScope.
func ScopeFrom(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(Scope)
	return scope, ok
}

func validScopeID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

func rejectScope(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	requestID := ""
	if rid := r.Context().Value(RequestIDKey); rid != nil {
		if id, ok := rid.(string); ok {
			requestID = id
		}
	}

	log.Warn("Request rejected by scope guard",
		"request_id", requestID,
		"reason", reason,
		"path", r.URL.Path,
		"method", r.Method,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Missing or invalid organization identity"}`))
}
