package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes
const (
	LoginSucceeded     = "success"
	LoginInvalidToken  = "invalid_token"
	LoginConflict      = "conflict"
	LoginMisconfigured = "misconfigured"
	LoginError         = "error"
)

// Gate verdicts
const (
	GateAdmitted     = "admitted"
	GateUnauthorized = "unauthorized"
	GateForbidden    = "forbidden"
)

// Metrics collects task tracker metrics. A nil *Metrics records nothing,
// so components can run without a registry.
type Metrics struct {
	logins        *prometheus.CounterVec
	usersCreated  *prometheus.CounterVec
	gateDecisions *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	jwksRefreshes *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "task_tracker_logins_total",
			Help: "Google sign-in attempts by outcome",
		}, []string{"outcome"}),
		usersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "task_tracker_users_created_total",
			Help: "Users registered on first login by assigned role",
		}, []string{"role"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "task_tracker_gate_decisions_total",
			Help: "Access gate verdicts",
		}, []string{"verdict"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "task_tracker_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "task_tracker_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		jwksRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "task_tracker_jwks_refreshes_total",
			Help: "Google signing key refreshes by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.logins,
		m.usersCreated,
		m.gateDecisions,
		m.httpRequests,
		m.httpDuration,
		m.jwksRefreshes,
	)

	return m
}

// RecordLogin counts a login attempt
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordUserCreated counts a registration
func (m *Metrics) RecordUserCreated(role string) {
	if m == nil {
		return
	}
	m.usersCreated.WithLabelValues(role).Inc()
}

// RecordGateDecision counts an access gate verdict
func (m *Metrics) RecordGateDecision(verdict string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(verdict).Inc()
}

// RecordHTTPRequest records a served request
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordKeyRefresh counts a signing key fetch
func (m *Metrics) RecordKeyRefresh(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.jwksRefreshes.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// MetricsMux serves /metrics for the dedicated metrics listener
func MetricsMux(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
