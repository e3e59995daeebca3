package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/nurkan-dev/ride-dispatch/docs"
	"github.com/nurkan-dev/ride-dispatch/internal/adapter/http/middleware"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	// System Health
	mux.HandleFunc("/health", routes.health.Healthcheck)

	setupSwaggerRoutes(mux)
	setupMetricsRoute(mux)
	setupWebhookRoutes(mux, routes)
	setupDispatchRoutes(mux, routes, m)
	setupRideRoutes(mux, routes, m)
	setupWSRoutes(mux, routes)
}

// setupWebhookRoutes setups broker webhook routes, authenticated by signature
func setupWebhookRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("POST /webhooks/ably/presence", routes.webhook.Presence)
}

// setupDispatchRoutes setups driver-facing dispatch routes
func setupDispatchRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("GET /dispatch/status", m.RequireRoles(routes.dispatch.GetStatus, types.RoleDriver))         // Current availability and location
	mux.Handle("PATCH /dispatch/status", m.RequireRoles(routes.dispatch.UpdateStatus, types.RoleDriver))    // Go ONLINE or OFFLINE
	mux.Handle("POST /dispatch/location", m.RequireRoles(routes.dispatch.UpdateLocation, types.RoleDriver)) // Location ping
	mux.Handle("GET /dispatch/nearby", m.RequireRoles(routes.dispatch.Nearby, types.RoleDriver, types.RolePassenger))
}

// setupRideRoutes setups ride lifecycle routes
func setupRideRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /rides", m.RequireRoles(routes.ride.Create, types.RolePassenger))           // Create a new ride request
	mux.Handle("GET /rides/{ride_id}/status", m.RequireRoles(routes.ride.Status, types.RolePassenger, types.RoleDriver))
	mux.Handle("POST /rides/{ride_id}/accept", m.RequireRoles(routes.ride.Accept, types.RoleDriver)) // Atomic claim
	mux.Handle("POST /rides/{ride_id}/skip", m.RequireRoles(routes.ride.Skip, types.RoleDriver))
	mux.Handle("POST /rides/{ride_id}/cancel", m.RequireRoles(routes.ride.Cancel, types.RolePassenger, types.RoleDriver))
}

// setupWSRoutes setups realtime event stream routes
func setupWSRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("GET /ws/riders/{rider_id}", routes.ws.RiderSocket)   // WebSocket connection for riders
	mux.HandleFunc("GET /ws/drivers/{driver_id}", routes.ws.DriverSocket) // WebSocket connection for drivers
}

// setupSwaggerRoutes configures the Swagger UI endpoint
func setupSwaggerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/swagger/", httpSwagger.Handler())
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
