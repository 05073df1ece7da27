package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/rhuss/stackauth/pkg/transport"
)

// TestMetricsRegistered verifies that all metrics are registered in the
// default registry.
func TestMetricsRegistered(t *testing.T) {
	RequestsTotal.WithLabelValues("GET", "2xx").Inc()
	RequestDuration.WithLabelValues("GET").Observe(0.1)
	AuthDecisionsTotal.WithLabelValues("anonymous").Inc()
	ChallengesTotal.WithLabelValues("relay").Inc()
	VerificationsTotal.WithLabelValues("apikey", "yes").Inc()
	RateLimitRejectedTotal.WithLabelValues("default").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	expected := map[string]bool{
		"stackauth_requests_total":           false,
		"stackauth_request_duration_seconds": false,
		"stackauth_auth_decisions_total":     false,
		"stackauth_challenges_total":         false,
		"stackauth_verifications_total":      false,
		"stackauth_ratelimit_rejected_total": false,
	}

	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not found in default registry", name)
		}
	}
}

func TestMiddlewareRecordsRequestCount(t *testing.T) {
	before := counterValue(t, RequestsTotal, "GET", "2xx")

	h := MetricsMiddleware()(transport.HandlerFunc(func(req *transport.Request) (*transport.Response, error) {
		return transport.NewResponse(http.StatusOK), nil
	}))
	h.Handle(transport.NewRequest(httptest.NewRequest("GET", "/", nil)))

	after := counterValue(t, RequestsTotal, "GET", "2xx")
	if after-before != 1 {
		t.Errorf("expected request count to increase by 1, got delta=%f", after-before)
	}
}

func TestMiddlewareRecordsDuration(t *testing.T) {
	before := histogramCount(t, RequestDuration, "POST")

	h := MetricsMiddleware()(transport.HandlerFunc(func(req *transport.Request) (*transport.Response, error) {
		return transport.NewResponse(http.StatusOK), nil
	}))
	h.Handle(transport.NewRequest(httptest.NewRequest("POST", "/", nil)))

	after := histogramCount(t, RequestDuration, "POST")
	if after-before != 1 {
		t.Errorf("expected histogram sample count to increase by 1, got delta=%d", after-before)
	}
}

func TestMiddlewareCapturesStatusClass(t *testing.T) {
	before4 := counterValue(t, RequestsTotal, "PUT", "4xx")
	before5 := counterValue(t, RequestsTotal, "PUT", "5xx")

	unauthorized := MetricsMiddleware()(transport.HandlerFunc(func(req *transport.Request) (*transport.Response, error) {
		return transport.NewResponse(http.StatusUnauthorized), nil
	}))
	failing := MetricsMiddleware()(transport.HandlerFunc(func(req *transport.Request) (*transport.Response, error) {
		return nil, errors.New("boom")
	}))

	unauthorized.Handle(transport.NewRequest(httptest.NewRequest("PUT", "/", nil)))
	failing.Handle(transport.NewRequest(httptest.NewRequest("PUT", "/", nil)))

	if d := counterValue(t, RequestsTotal, "PUT", "4xx") - before4; d != 1 {
		t.Errorf("expected 4xx count to increase by 1, got delta=%f", d)
	}
	if d := counterValue(t, RequestsTotal, "PUT", "5xx") - before5; d != 1 {
		t.Errorf("expected 5xx count to increase by 1, got delta=%f", d)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	AuthDecisionsTotal.WithLabelValues("rejected").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "stackauth_auth_decisions_total") {
		t.Error("metrics output missing stackauth_auth_decisions_total")
	}
}

// counterValue reads the current value of a CounterVec for the given labels.
func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting counter metric: %v", err)
	}
	if err := c.Write(m); err != nil {
		t.Fatalf("writing counter metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

// histogramCount reads the observation count from a HistogramVec.
func histogramCount(t *testing.T, hv *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	obs, err := hv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting histogram metric: %v", err)
	}
	if err := obs.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing histogram metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}
