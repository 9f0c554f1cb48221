package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/identity-federation/hub/internal/shared/middleware"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Policy metrics
	sessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_sessions_started_total",
			Help: "Total number of sessions started",
		},
		[]string{"transaction"},
	)

	sessionsTimedOut = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "policy_sessions_timed_out_total",
			Help: "Total number of sessions promoted to the timeout state",
		},
	)

	stateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_state_transitions_total",
			Help: "Total number of session state transitions",
		},
		[]string{"to_state"},
	)

	matchRequestsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_match_requests_sent_total",
			Help: "Total number of attribute queries dispatched to matching services",
		},
		[]string{"transaction"},
	)

	matchRequestTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "policy_match_request_timeouts_total",
			Help: "Total number of matching-service requests that exceeded the wait period",
		},
	)

	fraudEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_fraud_events_total",
			Help: "Total number of fraud responses received from identity providers",
		},
		[]string{"idp"},
	)

	responsesToTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_responses_to_transactions_total",
			Help: "Total number of final responses rendered to relying parties",
		},
		[]string{"status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath keeps session ids out of the path label so the label set
// stays bounded
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return middleware.RedactSessionID(path)
}

// --- Policy metric helpers ---

func RecordSessionStarted(transactionEntityID string) {
	sessionsStarted.WithLabelValues(transactionEntityID).Inc()
}

func RecordSessionTimedOut() {
	sessionsTimedOut.Inc()
}

func RecordStateTransition(toState string) {
	stateTransitions.WithLabelValues(toState).Inc()
}

func RecordMatchRequestSent(transactionEntityID string) {
	matchRequestsSent.WithLabelValues(transactionEntityID).Inc()
}

func RecordMatchRequestTimeout() {
	matchRequestTimeouts.Inc()
}

func RecordFraudEvent(idpEntityID string) {
	fraudEvents.WithLabelValues(idpEntityID).Inc()
}

func RecordResponseToTransaction(status string) {
	responsesToTransactions.WithLabelValues(status).Inc()
}
