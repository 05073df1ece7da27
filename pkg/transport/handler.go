package transport

import (
	"context"
	"net/http"
)

// Handler is the contract shared by every layer of the stack. An
// implementation receives a request and returns the response to send.
// A non-nil error means the handler could not produce a response at all;
// layers pass such errors through unchanged.
type Handler interface {
	Handle(req *Request) (*Response, error)
}

// HandlerFunc is an adapter that allows using an ordinary function as a
// Handler.
type HandlerFunc func(req *Request) (*Response, error)

// Handle calls f(req).
func (f HandlerFunc) Handle(req *Request) (*Response, error) {
	return f(req)
}

// Request is an inbound HTTP request plus the attribute bag shared by the
// layers that handle it.
type Request struct {
	// HTTP is the underlying request. Headers, URL and body are read from it.
	HTTP *http.Request

	// Attributes carries per-request facts between layers.
	Attributes Attributes
}

// NewRequest wraps r with an empty attribute bag.
func NewRequest(r *http.Request) *Request {
	return &Request{HTTP: r, Attributes: Attributes{}}
}

// Context returns the context of the underlying HTTP request.
func (r *Request) Context() context.Context {
	return r.HTTP.Context()
}

// Header returns the header collection of the underlying HTTP request.
func (r *Request) Header() http.Header {
	return r.HTTP.Header
}

// WithContext returns a shallow copy of r whose HTTP request carries ctx.
// The copy shares the attribute bag with r.
func (r *Request) WithContext(ctx context.Context) *Request {
	r2 := *r
	r2.HTTP = r.HTTP.WithContext(ctx)
	return &r2
}

// Attributes is a mutable key/value bag attached to a Request.
// It is not safe for concurrent use; a request is handled by one goroutine.
type Attributes map[string]any

// Has reports whether key is present, regardless of its value.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Get returns the value stored under key, or nil.
func (a Attributes) Get(key string) any {
	return a[key]
}

// Set stores value under key.
func (a Attributes) Set(key string, value any) {
	a[key] = value
}

// Delete removes key.
func (a Attributes) Delete(key string) {
	delete(a, key)
}

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse creates an empty response with the given status code.
func NewResponse(status int) *Response {
	return &Response{StatusCode: status, Header: make(http.Header)}
}

// NewTextResponse creates a plain text response.
func NewTextResponse(status int, body string) *Response {
	resp := NewResponse(status)
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = []byte(body)
	return resp
}

// Clone returns a deep copy of the response.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	return &Response{
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
		Body:       append([]byte(nil), r.Body...),
	}
}
