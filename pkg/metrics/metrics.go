package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	// Dispatch metrics
	ActiveDispatchesGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_active_total",
			Help: "Current number of rides being dispatched",
		},
	)

	DispatchRoundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_rounds_total",
			Help: "Total number of dispatch rounds executed",
		},
	)

	OffersPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_offers_published_total",
			Help: "Total number of ride offers pushed to drivers",
		},
	)

	RidesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rides_total",
			Help: "Total number of rides by terminal transition",
		},
		[]string{"status"},
	)

	DriversOnlineGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drivers_online_total",
			Help: "Current number of online drivers",
		},
	)

	WebSocketConnectionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_total",
			Help: "Current number of active WebSocket connections",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of realtime events published",
		},
		[]string{"event", "status"},
	)

	PresenceEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_events_total",
			Help: "Total number of presence transitions ingested",
		},
		[]string{"action"},
	)
)

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(service, method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(service, method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(service, method, path, status).Observe(duration.Seconds())
}

// RecordEventPublish records a realtime publish attempt
func RecordEventPublish(event string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EventsPublished.WithLabelValues(event, status).Inc()
}
