package router

import (
	"net/http"

	"qr-kitchen/internal/handler"
	"qr-kitchen/internal/middleware"
	"qr-kitchen/internal/tenant"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Order      *handler.OrderHandler
	Stream     *handler.StreamHandler
	Product    *handler.ProductHandler
	Station    *handler.StationHandler
	Restaurant *handler.RestaurantHandler
	Auth       *handler.AuthHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, resolver *tenant.Resolver, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	auth := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(fn)
	}

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("POST /api/orders", h.Order.Create)
	mux.Handle("GET /api/orders", auth(h.Order.List))
	// The stream checks its own credential so it can answer before any
	// stream bytes go out.
	mux.HandleFunc("GET /api/orders/stream", h.Stream.Stream)
	mux.HandleFunc("GET /api/orders/{id}", h.Order.GetByID)
	mux.Handle("PATCH /api/orders/{id}/status", auth(h.Order.UpdateStatus))
	mux.Handle("PATCH /api/orders/{id}/release", auth(h.Order.ReleaseTable))
	mux.Handle("GET /api/orders/{id}/history", auth(h.Order.History))

	mux.HandleFunc("GET /api/products", h.Product.GetAll)
	mux.HandleFunc("GET /api/products/{id}", h.Product.GetByID)

	mux.Handle("GET /api/stations", auth(h.Station.List))
	mux.Handle("POST /api/stations", auth(h.Station.Create))
	mux.Handle("DELETE /api/stations/{id}", auth(h.Station.Delete))

	mux.Handle("GET /api/restaurants/{id}", auth(h.Restaurant.Get))
	mux.Handle("PATCH /api/restaurants/{id}", auth(h.Restaurant.Update))

	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.Handle("GET /api/auth/verify", auth(h.Auth.Verify))

	// Apply middleware in order: Recovery -> RequestID -> TenantContext -> Logging -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.TenantContext(resolver, logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
