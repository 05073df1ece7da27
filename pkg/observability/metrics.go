// Package observability provides Prometheus metrics and middleware for
// monitoring the authentication stack.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LatencyBuckets defines histogram buckets for request latencies,
// ranging from 5ms to 30s.
var LatencyBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

var (
	// RequestsTotal counts all requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackauth_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stackauth_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LatencyBuckets,
		},
		[]string{"method"},
	)

	// AuthDecisionsTotal counts authentication gate decisions by path:
	// token, authenticate, anonymous or rejected.
	AuthDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackauth_auth_decisions_total",
			Help: "Authentication gate decisions",
		},
		[]string{"path"},
	)

	// ChallengesTotal counts challenges issued, by source: gate (immediate
	// rejection) or relay (deferred signal from a nested handler).
	ChallengesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackauth_challenges_total",
			Help: "Authentication challenges issued",
		},
		[]string{"source"},
	)

	// VerificationsTotal counts credential verifications by verifier and outcome.
	VerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackauth_verifications_total",
			Help: "Credential verifications",
		},
		[]string{"verifier", "decision"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackauth_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthDecisionsTotal,
		ChallengesTotal,
		VerificationsTotal,
		RateLimitRejectedTotal,
	)
}

// Handler returns the HTTP handler that exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
