package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/riverlog/riverlog/internal/access"
	"github.com/riverlog/riverlog/internal/auth"
	"github.com/riverlog/riverlog/internal/handler/dto"
	"github.com/riverlog/riverlog/internal/model"
	"github.com/riverlog/riverlog/internal/service"
)

// RiverService is the subset of the river service used by the handler.
type RiverService interface {
	CreateRiver(ctx context.Context, input service.CreateRiverInput) (*model.River, error)
	GetRiver(ctx context.Context, id string) (*model.River, error)
	ListRivers(ctx context.Context) ([]*model.River, error)
	UpdateRiver(ctx context.Context, id string, input service.UpdateRiverInput) (*model.River, error)
	DeleteRiver(ctx context.Context, id string) error
}

// RiverHandler handles HTTP requests for river operations. Each action
// runs the access policy twice: once before any record is touched
// (authentication), and once after lookup (ownership).
type RiverHandler struct {
	svc    RiverService
	logger *slog.Logger
}

// NewRiverHandler creates a new RiverHandler.
func NewRiverHandler(svc RiverService, logger *slog.Logger) *RiverHandler {
	return &RiverHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/v1/rivers. Open to unauthenticated callers;
// renders the summary projection without coordinates.
func (h *RiverHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID := auth.UserIDFromContext(r.Context())
	if !h.allow(w, access.ActionList, callerID, "") {
		return
	}

	rivers, err := h.svc.ListRivers(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRiverSummaries(rivers))
}

// Retrieve handles GET /api/v1/rivers/{id}. Owner only; non-owners get
// the same 404 as a missing record.
func (h *RiverHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	callerID := auth.UserIDFromContext(r.Context())
	if !h.allow(w, access.ActionRetrieve, callerID, "") {
		return
	}

	river, ok := h.resolveOwned(w, r, access.ActionRetrieve, callerID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRiverDetail(river))
}

// Create handles POST /api/v1/rivers. The owner is always the
// authenticated caller; any owner field in the payload is ignored.
func (h *RiverHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID := auth.UserIDFromContext(r.Context())
	if !h.allow(w, access.ActionCreate, callerID, "") {
		return
	}

	var req dto.CreateRiverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	river, err := h.svc.CreateRiver(r.Context(), service.CreateRiverInput{
		OwnerID:      callerID,
		Name:         req.Name,
		Feature:      req.Feature,
		State:        req.State,
		Region:       *req.Region,
		Miles:        *req.Miles,
		GeometryType: req.GeometryType,
		Coordinates:  req.Coordinates,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("river_created",
		"river_id", river.ID,
		"owner_id", river.OwnerID,
		"name", river.Name,
	)

	writeJSON(w, http.StatusCreated, dto.ToRiverDetail(river))
}

// Update handles PUT /api/v1/rivers/{id}. All writable fields required.
func (h *RiverHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, access.ActionUpdate, true)
}

// PartialUpdate handles PATCH /api/v1/rivers/{id}. Accepts any subset of
// writable fields.
func (h *RiverHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, access.ActionPartialUpdate, false)
}

func (h *RiverHandler) update(w http.ResponseWriter, r *http.Request, action access.Action, full bool) {
	callerID := auth.UserIDFromContext(r.Context())
	if !h.allow(w, action, callerID, "") {
		return
	}

	// The record is resolved and the object-level policy stage runs
	// before the payload is looked at: a non-owner never learns whether
	// their body would have validated.
	river, ok := h.resolveOwned(w, r, action, callerID)
	if !ok {
		return
	}

	var req dto.UpdateRiverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if fields := req.Validate(full); len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	updated, err := h.svc.UpdateRiver(r.Context(), river.ID, service.UpdateRiverInput{
		Name:         req.Name,
		Feature:      req.Feature,
		State:        req.State,
		Region:       req.Region,
		Miles:        req.Miles,
		GeometryType: req.GeometryType,
		Coordinates:  req.Coordinates,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("river_updated",
		"river_id", updated.ID,
		"owner_id", updated.OwnerID,
	)

	writeJSON(w, http.StatusOK, dto.ToRiverDetail(updated))
}

// Destroy handles DELETE /api/v1/rivers/{id}.
func (h *RiverHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	callerID := auth.UserIDFromContext(r.Context())
	if !h.allow(w, access.ActionDestroy, callerID, "") {
		return
	}

	river, ok := h.resolveOwned(w, r, access.ActionDestroy, callerID)
	if !ok {
		return
	}

	if err := h.svc.DeleteRiver(r.Context(), river.ID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("river_deleted",
		"river_id", river.ID,
		"owner_id", river.OwnerID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// allow runs one policy stage and writes the rejection if denied.
func (h *RiverHandler) allow(w http.ResponseWriter, action access.Action, callerID, ownerID string) bool {
	switch access.Decide(action, callerID, ownerID) {
	case access.DecisionAllow:
		return true
	case access.DecisionUnauthorized:
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return false
	default:
		writeError(w, http.StatusNotFound, "RIVER_NOT_FOUND", "River not found")
		return false
	}
}

// resolveOwned looks up the river from the URL and applies the
// object-level policy stage. A missing record and a non-owner caller get
// the same 404.
func (h *RiverHandler) resolveOwned(w http.ResponseWriter, r *http.Request, action access.Action, callerID string) (*model.River, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "River ID is required")
		return nil, false
	}

	river, err := h.svc.GetRiver(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return nil, false
	}

	if !h.allow(w, action, callerID, river.OwnerID) {
		return nil, false
	}

	return river, true
}

// writeDecodeError maps a JSON decode failure to a response. A type
// mismatch inside the coordinates array gets the same per-field message
// as the other coordinate validation failures.
func writeDecodeError(w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && strings.HasPrefix(typeErr.Field, "coordinates") {
		writeValidationError(w, map[string]string{
			"coordinates": "each coordinate must be a numeric [longitude, latitude] pair",
		})
		return
	}

	writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
}

// handleServiceError maps service errors to HTTP responses.
func (h *RiverHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRiverNotFound):
		writeError(w, http.StatusNotFound, "RIVER_NOT_FOUND", "River not found")
	case errors.Is(err, model.ErrCoordinatesEmpty):
		writeValidationError(w, map[string]string{"coordinates": "coordinates must not be empty"})
	case errors.Is(err, model.ErrCoordinatePair):
		writeValidationError(w, map[string]string{"coordinates": "each coordinate must be a [longitude, latitude] pair"})
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
