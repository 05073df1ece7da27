package transport

import (
	"log/slog"
	"time"
)

// Logging returns middleware that emits one structured log entry per
// request with method, path, status, duration and request ID.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return HandlerFunc(func(req *Request) (*Response, error) {
			start := time.Now()
			ctx := req.Context()

			resp, err := next.Handle(req)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.String("method", req.HTTP.Method),
				slog.String("path", req.HTTP.URL.Path),
				slog.Duration("duration", time.Since(start)),
			}
			if resp != nil {
				attrs = append(attrs, slog.Int("status", resp.StatusCode))
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "request failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "request completed", attrs...)
			}

			return resp, err
		})
	}
}
