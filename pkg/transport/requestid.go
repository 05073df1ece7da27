package transport

import "github.com/google/uuid"

// RequestIDHeader is the header used to propagate request IDs.
const RequestIDHeader = "X-Request-ID"

// RequestID returns middleware that assigns a unique request ID to each
// request. An incoming X-Request-ID header (or an ID already in the
// context) is reused; otherwise a new UUID is generated. The ID is stored
// in the context and echoed on the response.
func RequestID() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *Request) (*Response, error) {
			id := RequestIDFromContext(req.Context())
			if id == "" {
				id = req.Header().Get(RequestIDHeader)
			}
			if id == "" {
				id = uuid.NewString()
			}
			req = req.WithContext(ContextWithRequestID(req.Context(), id))

			resp, err := next.Handle(req)
			if resp != nil && resp.Header != nil && resp.Header.Get(RequestIDHeader) == "" {
				resp.Header.Set(RequestIDHeader, id)
			}
			return resp, err
		})
	}
}
