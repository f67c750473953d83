package handler

import (
	"encoding/json"
	"net/http"

	"gearbase/internal/assets/service"
	apperrors "gearbase/pkg/errors"
	httputil "gearbase/pkg/http"
	"gearbase/pkg/logger"
	"gearbase/pkg/middleware"
	"gearbase/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AssetHandler struct {
	service service.AssetService
	log     *logger.Logger
}

func NewAssetHandler(service service.AssetService, log *logger.Logger) *AssetHandler {
	return &AssetHandler{
		service: service,
		log:     log,
	}
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scope, ok := h.scope(w, r, "Create")
	if !ok {
		return
	}

	var asset model.Asset
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), scope, &asset); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, asset); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *AssetHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	scope, ok := h.scope(w, r, "GetByID")
	if !ok {
		return
	}

	asset, err := h.service.GetByID(r.Context(), scope, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, asset); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *AssetHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scope, ok := h.scope(w, r, "GetAll")
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	assets, total, err := h.service.GetAll(r.Context(), scope, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, assets, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *AssetHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	scope, ok := h.scope(w, r, "Update")
	if !ok {
		return
	}

	var updates model.AssetUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Update(r.Context(), scope, ps.ByName("id"), &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AssetHandler) SetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	scope, ok := h.scope(w, r, "SetAvailability")
	if !ok {
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "SetAvailability", apperrors.InvalidInput("Invalid request body"))
		return
	}
	if req.Available == nil {
		h.writeError(w, "SetAvailability", apperrors.InvalidInput("'available' field is required"))
		return
	}

	if err := h.service.SetAvailability(r.Context(), scope, ps.ByName("id"), *req.Available); err != nil {
		h.writeError(w, "SetAvailability", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AssetHandler) scope(w http.ResponseWriter, r *http.Request, operation string) (middleware.Scope, bool) {
	scope, ok := middleware.ScopeFrom(r.Context())
	if !ok {
		h.writeError(w, operation, apperrors.Unauthorized("Missing organization scope"))
		return middleware.Scope{}, false
	}
	return scope, true
}

func (h *AssetHandler) writeError(w http.ResponseWriter, operation string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", operation, "error", writeErr)
	}
}

func (h *AssetHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/assets", h.Create)
	router.GET("/api/v1/assets", h.GetAll)
	router.GET("/api/v1/assets/id/:id", h.GetByID)
	router.PATCH("/api/v1/assets/id/:id", h.Update)
	router.PATCH("/api/v1/assets/id/:id/availability", h.SetAvailability)
}
