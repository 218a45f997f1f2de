// Package metrics provides Prometheus instrumentation for the coupon engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CouponsCreated counts ledger rows appended, partitioned by kind
	// (wager, deposit, withdrawal).
	CouponsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_engine_coupons_created_total",
		Help: "Total number of coupons appended to the ledger",
	}, []string{"kind"})

	// CouponsSettled counts settlements, partitioned by result.
	CouponsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_engine_coupons_settled_total",
		Help: "Total number of coupons settled",
	}, []string{"result"})

	// Recommendations counts stake recommendation requests by outcome
	// (stake, goal_met, invalid_odds).
	Recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_engine_recommendations_total",
		Help: "Total stake recommendation requests by outcome",
	}, []string{"outcome"})

	// ParseWarnings counts malformed numeric cells replaced by zero
	// during ledger loads.
	ParseWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coupon_engine_parse_warnings_total",
		Help: "Malformed numeric fields substituted with zero at load",
	})

	// PendingCoupons tracks the number of unsettled coupons.
	PendingCoupons = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coupon_engine_pending_coupons",
		Help: "Number of coupons awaiting settlement",
	})

	// Budget tracks the current spendable budget. Approximate float for
	// observability only; the ledger itself never leaves decimal.
	Budget = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coupon_engine_budget",
		Help: "Current spendable budget",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coupon_engine_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// Backups counts scheduled ledger backups by status (ok, error,
	// skipped).
	Backups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_engine_backups_total",
		Help: "Scheduled ledger backups by status",
	}, []string{"status"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_engine_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coupon_engine_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
