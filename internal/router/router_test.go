package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"qr-kitchen/internal/handler"
	"qr-kitchen/internal/middleware"
	"qr-kitchen/internal/tenant"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// newTestRouter wires handlers without services; only requests rejected
// before reaching a service are sent through it.
func newTestRouter() http.Handler {
	logger := zerolog.Nop()
	return New(Handlers{
		Order:      handler.NewOrderHandler(nil, logger),
		Stream:     handler.NewStreamHandler(nil, logger),
		Product:    handler.NewProductHandler(nil, logger),
		Station:    handler.NewStationHandler(nil, logger),
		Restaurant: handler.NewRestaurantHandler(nil, logger),
		Auth:       handler.NewAuthHandler(nil, logger),
	}, tenant.NewResolver(0, 1), logger)
}

func TestRouter(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		target         string
		expectedStatus int
	}{
		{name: "Health", method: http.MethodGet, target: "/health", expectedStatus: http.StatusOK},
		{name: "Preflight", method: http.MethodOptions, target: "/api/orders/abc/status", expectedStatus: http.StatusNoContent},
		{name: "List orders needs auth", method: http.MethodGet, target: "/api/orders", expectedStatus: http.StatusUnauthorized},
		{name: "Status update needs auth", method: http.MethodPatch, target: "/api/orders/abc/status", expectedStatus: http.StatusUnauthorized},
		{name: "Release needs auth", method: http.MethodPatch, target: "/api/orders/abc/release", expectedStatus: http.StatusUnauthorized},
		{name: "History needs auth", method: http.MethodGet, target: "/api/orders/abc/history", expectedStatus: http.StatusUnauthorized},
		{name: "Stream needs token", method: http.MethodGet, target: "/api/orders/stream", expectedStatus: http.StatusUnauthorized},
		{name: "Stations need auth", method: http.MethodGet, target: "/api/stations", expectedStatus: http.StatusUnauthorized},
		{name: "Station delete needs auth", method: http.MethodDelete, target: "/api/stations/1", expectedStatus: http.StatusUnauthorized},
		{name: "Restaurant profile needs auth", method: http.MethodGet, target: "/api/restaurants/1", expectedStatus: http.StatusUnauthorized},
		{name: "Restaurant update needs auth", method: http.MethodPatch, target: "/api/restaurants/1", expectedStatus: http.StatusUnauthorized},
		{name: "Verify needs auth", method: http.MethodGet, target: "/api/auth/verify", expectedStatus: http.StatusUnauthorized},
		{name: "Wrong method", method: http.MethodPut, target: "/api/orders/abc/status", expectedStatus: http.StatusMethodNotAllowed},
		{name: "Unknown path", method: http.MethodGet, target: "/api/tables", expectedStatus: http.StatusNotFound},
	}

	router := newTestRouter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}
