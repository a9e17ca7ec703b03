package handler

import (
	"net/http"
	"strconv"

	"qr-kitchen/internal/model"
	"qr-kitchen/internal/service"

	"github.com/rs/zerolog"
)

// StationHandler handles kitchen station requests.
type StationHandler struct {
	service service.StationService
	logger  zerolog.Logger
}

// NewStationHandler creates a new station handler.
func NewStationHandler(service service.StationService, logger zerolog.Logger) *StationHandler {
	return &StationHandler{
		service: service,
		logger:  logger.With().Str("handler", "station").Logger(),
	}
}

// List handles GET /api/stations.
func (h *StationHandler) List(w http.ResponseWriter, r *http.Request) {
	stations, err := h.service.List(r.Context(), tenantFrom(r).TenantID)
	if err != nil {
		writeServiceError(w, r, err, "failed to list stations", h.logger)
		return
	}
	if stations == nil {
		stations = []model.Station{}
	}

	writeJSON(w, http.StatusOK, stations)
}

// Create handles POST /api/stations.
func (h *StationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.StationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body", h.logger)
		return
	}

	station, err := h.service.Create(r.Context(), tenantFrom(r).TenantID, &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create station", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, station)
}

// Delete handles DELETE /api/stations/{id}.
func (h *StationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid station ID", h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), tenantFrom(r).TenantID, id); err != nil {
		writeServiceError(w, r, err, "failed to delete station", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "station deleted"})
}
