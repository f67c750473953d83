package handler

import (
	"encoding/json"
	"net/http"

	"gearbase/internal/bulk/service"
	apperrors "gearbase/pkg/errors"
	httputil "gearbase/pkg/http"
	"gearbase/pkg/logger"
	"gearbase/pkg/middleware"
	"gearbase/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BulkHandler struct {
	service service.BulkService
	log     *logger.Logger
}

func NewBulkHandler(service service.BulkService, log *logger.Logger) *BulkHandler {
	return &BulkHandler{
		service: service,
		log:     log,
	}
}

func (h *BulkHandler) Resolve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scope, ok := h.scope(w, r, "Resolve")
	if !ok {
		return
	}

	var selection model.Selection
	if err := json.NewDecoder(r.Body).Decode(&selection); err != nil {
		h.writeError(w, "Resolve", apperrors.InvalidInput("Invalid request body"))
		return
	}

	resolved, err := h.service.Resolve(r.Context(), scope, &selection)
	if err != nil {
		h.writeError(w, "Resolve", err)
		return
	}

	if err := httputil.WriteSuccess(w, resolved); err != nil {
		h.log.Error("failed to write success response", "handler", "Resolve", "error", err)
	}
}

// Execute runs a bulk operation. The response is 200 even when some items
// failed; per-item outcomes are inside the body.
func (h *BulkHandler) Execute(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scope, ok := h.scope(w, r, "Execute")
	if !ok {
		return
	}

	var req service.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Execute", apperrors.InvalidInput("Invalid request body"))
		return
	}

	outcome, err := h.service.Execute(r.Context(), scope, &req)
	if err != nil {
		h.writeError(w, "Execute", err)
		return
	}

	if err := httputil.WriteSuccess(w, outcome); err != nil {
		h.log.Error("failed to write success response", "handler", "Execute", "error", err)
	}
}

func (h *BulkHandler) scope(w http.ResponseWriter, r *http.Request, operation string) (middleware.Scope, bool) {
	scope, ok := middleware.ScopeFrom(r.Context())
	if !ok {
		h.writeError(w, operation, apperrors.Unauthorized("Missing organization scope"))
		return middleware.Scope{}, false
	}
	return scope, true
}

func (h *BulkHandler) writeError(w http.ResponseWriter, operation string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", operation, "error", writeErr)
	}
}

func (h *BulkHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bulk/resolve", h.Resolve)
	router.POST("/api/v1/bulk/execute", h.Execute)
}
