package observability

import (
	"strconv"
	"time"

	"github.com/rhuss/stackauth/pkg/transport"
)

// MetricsMiddleware records stackauth_requests_total and
// stackauth_request_duration_seconds for every request that passes
// through the chain. A handler error is counted as a 5xx.
func MetricsMiddleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(req *transport.Request) (*transport.Response, error) {
			start := time.Now()

			resp, err := next.Handle(req)

			status := 500
			if err == nil && resp != nil {
				status = resp.StatusCode
			}
			statusStr := strconv.Itoa(status/100) + "xx"

			RequestsTotal.WithLabelValues(req.HTTP.Method, statusStr).Inc()
			RequestDuration.WithLabelValues(req.HTTP.Method).Observe(time.Since(start).Seconds())

			return resp, err
		})
	}
}
