package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request durations and counts for the API surface.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests served.",
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration, requests)
	return &HTTPMetrics{duration: duration, requests: requests}
}

// ObserveRequest records one finished request.
func (h *HTTPMetrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	method = normalizeLabel(method)
	route = normalizeLabel(route)
	status = normalizeLabel(status)
	h.duration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
	h.requests.WithLabelValues(method, route, status).Inc()
}

// OrderMetrics tracks lifecycle transitions and the points they move.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	points      *prometheus.CounterVec
}

// NewOrderMetrics registers the order lifecycle metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order lifecycle transitions by action and outcome.",
	}, []string{"action", "outcome"})
	points := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "points_moved_total",
		Help: "Points moved through the ledger by reason.",
	}, []string{"reason"})
	reg.MustRegister(transitions, points)
	return &OrderMetrics{transitions: transitions, points: points}
}

// IncTransition counts one attempted transition with its outcome (ok, conflict, error).
func (o *OrderMetrics) IncTransition(action, outcome string) {
	if o == nil || o.transitions == nil {
		return
	}
	o.transitions.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

// AddPoints accumulates the absolute number of points moved for a ledger reason.
func (o *OrderMetrics) AddPoints(reason string, amount int) {
	if o == nil || o.points == nil {
		return
	}
	if amount < 0 {
		amount = -amount
	}
	o.points.WithLabelValues(normalizeLabel(reason)).Add(float64(amount))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
