package transport

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestRequest(method, path string) *Request {
	return NewRequest(httptest.NewRequest(method, path, nil))
}

func okHandler() Handler {
	return HandlerFunc(func(req *Request) (*Response, error) {
		return NewTextResponse(http.StatusOK, "ok"), nil
	})
}

func TestChainAppliesMiddlewareInOrder(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return HandlerFunc(func(req *Request) (*Response, error) {
				order = append(order, name+":before")
				resp, err := next.Handle(req)
				order = append(order, name+":after")
				return resp, err
			})
		}
	}

	handler := HandlerFunc(func(req *Request) (*Response, error) {
		order = append(order, "handler")
		return NewResponse(http.StatusOK), nil
	})

	wrapped := Chain(mw("first"), mw("second"), mw("third"))(handler)
	if _, err := wrapped.Handle(newTestRequest("GET", "/")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{
		"first:before", "second:before", "third:before",
		"handler",
		"third:after", "second:after", "first:after",
	}

	if len(order) != len(expected) {
		t.Fatalf("execution order length = %d, want %d: %v", len(order), len(expected), order)
	}
	for i, got := range order {
		if got != expected[i] {
			t.Errorf("order[%d] = %q, want %q", i, got, expected[i])
		}
	}
}

func TestChainEmpty(t *testing.T) {
	resp, err := Chain()(okHandler()).Handle(newTestRequest("GET", "/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRecoveryCatchesPanic(t *testing.T) {
	handler := HandlerFunc(func(req *Request) (*Response, error) {
		panic("test panic")
	})

	resp, err := Recovery()(handler).Handle(newTestRequest("GET", "/boom"))
	if err != nil {
		t.Fatalf("expected panic to become a response, got error: %v", err)
	}
	if resp == nil {
		t.Fatal("expected response after panic, got nil")
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if !strings.Contains(string(resp.Body), `"server_error"`) {
		t.Errorf("body = %s, want server_error type", resp.Body)
	}
}

func TestRecoveryPassesThroughNormalExecution(t *testing.T) {
	wantErr := errors.New("upstream down")
	handler := HandlerFunc(func(req *Request) (*Response, error) {
		return nil, wantErr
	})

	_, err := Recovery()(handler).Handle(newTestRequest("GET", "/"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
}

func TestRequestIDGeneratesNewID(t *testing.T) {
	var capturedID string

	handler := HandlerFunc(func(req *Request) (*Response, error) {
		capturedID = RequestIDFromContext(req.Context())
		return NewResponse(http.StatusOK), nil
	})

	resp, _ := RequestID()(handler).Handle(newTestRequest("GET", "/"))

	if capturedID == "" {
		t.Fatal("expected a generated request ID, got empty string")
	}
	if len(capturedID) != 36 {
		t.Errorf("request ID length = %d, want 36 (UUID)", len(capturedID))
	}
	if got := resp.Header.Get(RequestIDHeader); got != capturedID {
		t.Errorf("response %s = %q, want %q", RequestIDHeader, got, capturedID)
	}
}

func TestRequestIDPropagatesHeader(t *testing.T) {
	var capturedID string

	handler := HandlerFunc(func(req *Request) (*Response, error) {
		capturedID = RequestIDFromContext(req.Context())
		return NewResponse(http.StatusOK), nil
	})

	req := newTestRequest("GET", "/")
	req.Header().Set(RequestIDHeader, "existing-id-123")
	RequestID()(handler).Handle(req)

	if capturedID != "existing-id-123" {
		t.Errorf("request ID = %q, want %q", capturedID, "existing-id-123")
	}
}

func TestRequestIDKeepsAttributes(t *testing.T) {
	req := newTestRequest("GET", "/")
	req.Attributes.Set("k", "v")

	var got any
	handler := HandlerFunc(func(r *Request) (*Response, error) {
		got = r.Attributes.Get("k")
		r.Attributes.Set("inner", true)
		return NewResponse(http.StatusOK), nil
	})
	RequestID()(handler).Handle(req)

	if got != "v" {
		t.Errorf("attribute k = %v, want v", got)
	}
	if !req.Attributes.Has("inner") {
		t.Error("attribute set by inner handler not visible to caller")
	}
}

func TestRequestIDUniqueness(t *testing.T) {
	ids := make(map[string]bool)
	handler := HandlerFunc(func(req *Request) (*Response, error) {
		ids[RequestIDFromContext(req.Context())] = true
		return NewResponse(http.StatusOK), nil
	})

	wrapped := RequestID()(handler)
	for i := 0; i < 100; i++ {
		wrapped.Handle(newTestRequest("GET", "/"))
	}

	if len(ids) != 100 {
		t.Errorf("expected 100 unique IDs, got %d", len(ids))
	}
}

func TestLoggingEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	req := newTestRequest("POST", "/v1/things")
	req = req.WithContext(ContextWithRequestID(req.Context(), "req-log-test"))
	Logging(logger)(okHandler()).Handle(req)

	output := buf.String()
	for _, expected := range []string{"request_id=req-log-test", "method=POST", "path=/v1/things", "status=200", "request completed"} {
		if !strings.Contains(output, expected) {
			t.Errorf("log output missing %q in:\n%s", expected, output)
		}
	}
}

func TestLoggingEmitsErrorOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := HandlerFunc(func(req *Request) (*Response, error) {
		return nil, errors.New("test failure")
	})

	Logging(logger)(handler).Handle(newTestRequest("GET", "/"))

	output := buf.String()
	if !strings.Contains(output, "request failed") {
		t.Errorf("log output missing 'request failed' in:\n%s", output)
	}
	if !strings.Contains(output, "test failure") {
		t.Errorf("log output missing error message in:\n%s", output)
	}
}
