// Package http bridges the transport.Handler contract to net/http.
//
// Adapter serves a transport.Handler chain on a standard http.ServeMux and
// FromHTTP lets any http.Handler (a reverse proxy, a mux, a file server) act
// as the innermost application of a stack.
package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/rhuss/stackauth/pkg/transport"
)

// Adapter serves a transport.Handler over HTTP. Requests that match no
// mounted pattern are dispatched to the handler.
type Adapter struct {
	handler transport.Handler
	mux     *http.ServeMux
	config  Config
	logger  *slog.Logger
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr            string
	MaxBodySize     int64
	ShutdownTimeout int // seconds
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		MaxBodySize:     10 << 20, // 10 MB
		ShutdownTimeout: 30,
	}
}

// NewAdapter creates an HTTP adapter for h. Middleware is applied to h in
// the given order.
func NewAdapter(h transport.Handler, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		h = transport.Chain(middlewares...)(h)
	}

	a := &Adapter{
		handler: h,
		mux:     http.NewServeMux(),
		config:  cfg,
		logger:  slog.Default(),
	}
	a.mux.HandleFunc("/", a.serve)
	return a
}

// Mount registers an http.Handler for pattern. Mounted handlers bypass the
// transport chain entirely; use this for health and metrics endpoints.
func (a *Adapter) Mount(pattern string, h http.Handler) {
	a.mux.Handle(pattern, h)
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

// serve converts r into a transport.Request, runs the chain and writes
// the result.
func (a *Adapter) serve(w http.ResponseWriter, r *http.Request) {
	if a.config.MaxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	}

	req := transport.NewRequest(r)
	resp, err := a.handler.Handle(req)
	if err != nil {
		a.logger.Error("handler returned error",
			"path", r.URL.Path,
			"request_id", transport.RequestIDFromContext(req.Context()),
			"error", err,
		)
		resp = transport.ErrorResponse(http.StatusInternalServerError, transport.ErrorTypeServerError, "internal server error")
	}
	if resp == nil {
		a.logger.Error("handler returned no response", "path", r.URL.Path)
		resp = transport.ErrorResponse(http.StatusInternalServerError, transport.ErrorTypeServerError, "internal server error")
	}

	WriteResponse(w, resp)
}

// WriteResponse copies resp onto w.
func WriteResponse(w http.ResponseWriter, resp *transport.Response) {
	dst := w.Header()
	for k, vs := range resp.Header {
		dst[k] = append([]string(nil), vs...)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}

// FromHTTP adapts a standard http.Handler to transport.Handler. The handler
// runs against a buffering writer; its status, headers and body become the
// returned Response. The request's attributes are not visible to h.
func FromHTTP(h http.Handler) transport.Handler {
	return transport.HandlerFunc(func(req *transport.Request) (*transport.Response, error) {
		rec := newRecorder()
		h.ServeHTTP(rec, req.HTTP)
		return rec.response(), nil
	})
}

// recorder is a minimal buffering http.ResponseWriter.
type recorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(b)
}

// Flush is a no-op; the body is delivered once the handler returns.
func (r *recorder) Flush() {}

func (r *recorder) response() *transport.Response {
	status := r.status
	if !r.wroteHeader {
		status = http.StatusOK
	}
	return &transport.Response{
		StatusCode: status,
		Header:     r.header.Clone(),
		Body:       r.body.Bytes(),
	}
}
