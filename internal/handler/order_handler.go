package handler

import (
	"fmt"
	"net/http"

	"qr-kitchen/internal/model"
	"qr-kitchen/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders. Anonymous customers may name the
// restaurant in the body; staff credentials always win.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body", h.logger)
		return
	}

	tc := tenantFrom(r).WithClientTenant(req.RestaurantID)

	resp, err := h.service.CreateOrder(r.Context(), tc.TenantID, &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create order", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/orders?status=a,b.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	statuses, err := model.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidStatus, "invalid status filter", h.logger)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), tenantFrom(r).TenantID, statuses)
	if err != nil {
		writeServiceError(w, r, err, "failed to list orders", h.logger)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), tenantFrom(r).TenantID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to retrieve order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req model.StatusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body", h.logger)
		return
	}

	status, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidStatus, fmt.Sprintf("invalid status %q", req.Status), h.logger)
		return
	}

	tc := tenantFrom(r)
	order, err := h.service.UpdateStatus(r.Context(), tc.TenantID, r.PathValue("id"), status, tc.Identity)
	if err != nil {
		writeServiceError(w, r, err, "failed to update order status", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("order status updated to %s", order.Status),
	})
}

// ReleaseTable handles PATCH /api/orders/{id}/release.
func (h *OrderHandler) ReleaseTable(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ReleaseTable(r.Context(), tenantFrom(r).TenantID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "failed to release table", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "table released"})
}

// History handles GET /api/orders/{id}/history.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.StatusHistory(r.Context(), tenantFrom(r).TenantID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load order history", h.logger)
		return
	}
	if history == nil {
		history = []model.OrderStatusChange{}
	}

	writeJSON(w, http.StatusOK, history)
}
