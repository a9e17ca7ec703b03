package handler

import (
	"net/http"
	"strconv"

	"qr-kitchen/internal/model"
	"qr-kitchen/internal/service"

	"github.com/rs/zerolog"
)

// RestaurantHandler handles restaurant profile requests.
type RestaurantHandler struct {
	service service.RestaurantService
	logger  zerolog.Logger
}

// NewRestaurantHandler creates a new restaurant handler.
func NewRestaurantHandler(service service.RestaurantService, logger zerolog.Logger) *RestaurantHandler {
	return &RestaurantHandler{
		service: service,
		logger:  logger.With().Str("handler", "restaurant").Logger(),
	}
}

// Get handles GET /api/restaurants/{id}.
func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	restaurant, err := h.service.Get(r.Context(), tenantFrom(r).TenantID, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to get restaurant", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, restaurant)
}

// Update handles PATCH /api/restaurants/{id}.
func (h *RestaurantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	var req model.RestaurantUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body", h.logger)
		return
	}

	restaurant, err := h.service.Update(r.Context(), tenantFrom(r).TenantID, id, &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to update restaurant", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, restaurant)
}

func (h *RestaurantHandler) restaurantID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid restaurant ID", h.logger)
		return 0, false
	}
	return id, true
}
