package transport

import (
	"fmt"
	"log/slog"
	"net/http"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to a 500 error response. The server continues to accept
// new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *Request) (resp *Response, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("handler panicked",
						"panic", fmt.Sprint(r),
						"path", req.HTTP.URL.Path,
						"request_id", RequestIDFromContext(req.Context()),
					)
					resp = ErrorResponse(http.StatusInternalServerError, ErrorTypeServerError, "internal server error")
					retErr = nil
				}
			}()
			return next.Handle(req)
		})
	}
}
