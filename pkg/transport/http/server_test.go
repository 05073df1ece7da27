package http

import (
	"context"
	"io"
	"net"
	gohttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rhuss/stackauth/pkg/transport"
)

func textHandler(body string) transport.Handler {
	return transport.HandlerFunc(func(req *transport.Request) (*transport.Response, error) {
		return transport.NewTextResponse(gohttp.StatusOK, body), nil
	})
}

func startServer(t *testing.T, srv *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	go srv.ServeOn(ln)
	time.Sleep(50 * time.Millisecond)
	return ln.Addr().String()
}

func TestServerStartsAndAcceptsRequests(t *testing.T) {
	srv := NewServer(textHandler("hello"), nil, WithAddr("127.0.0.1:0"))
	addr := startServer(t, srv)

	resp, err := gohttp.Get("http://" + addr + "/anything")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != gohttp.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, gohttp.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "hello" {
		t.Errorf("body = %q, want %q", body, "hello")
	}
	if resp.Header.Get(transport.RequestIDHeader) == "" {
		t.Error("expected X-Request-ID on response")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func TestServerHealthBypassesChain(t *testing.T) {
	blocked := transport.HandlerFunc(func(req *transport.Request) (*transport.Response, error) {
		return transport.NewResponse(gohttp.StatusUnauthorized), nil
	})
	srv := NewServer(blocked, nil, WithAddr("127.0.0.1:0"))
	addr := startServer(t, srv)
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := gohttp.Get("http://" + addr + path)
		if err != nil {
			t.Fatalf("GET %s error: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != gohttp.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestServerGracefulShutdown(t *testing.T) {
	slow := transport.HandlerFunc(func(req *transport.Request) (*transport.Response, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return transport.NewTextResponse(gohttp.StatusOK, "done"), nil
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	})

	srv := NewServer(slow, nil,
		WithAddr("127.0.0.1:0"),
		WithShutdownTimeout(5*time.Second),
	)
	addr := startServer(t, srv)

	responseCh := make(chan int, 1)
	go func() {
		resp, err := gohttp.Get("http://" + addr + "/slow")
		if err != nil {
			responseCh <- 0
			return
		}
		defer resp.Body.Close()
		responseCh <- resp.StatusCode
	}()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	status := <-responseCh
	if status != gohttp.StatusOK {
		t.Errorf("slow request status = %d, want %d", status, gohttp.StatusOK)
	}
}

func TestServerFunctionalOptions(t *testing.T) {
	srv := NewServer(textHandler(""), nil,
		WithAddr(":9999"),
		WithMaxBodySize(1024),
		WithTimeouts(5*time.Second, 6*time.Second),
		WithShutdownTimeout(10*time.Second),
	)

	if srv.config.Addr != ":9999" {
		t.Errorf("addr = %q, want %q", srv.config.Addr, ":9999")
	}
	if srv.config.MaxBodySize != 1024 {
		t.Errorf("max body size = %d, want %d", srv.config.MaxBodySize, 1024)
	}
	if srv.httpServer.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout = %v, want 5s", srv.httpServer.ReadTimeout)
	}
	if srv.httpServer.WriteTimeout != 6*time.Second {
		t.Errorf("write timeout = %v, want 6s", srv.httpServer.WriteTimeout)
	}
	if srv.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want %v", srv.config.ShutdownTimeout, 10*time.Second)
	}
}

func TestServerReadyCheck(t *testing.T) {
	var failing bool
	srv := NewServer(textHandler("hello"), nil, WithReadyCheck(func(context.Context) error {
		if failing {
			return io.ErrUnexpectedEOF
		}
		return nil
	}))
	h := srv.Handler()

	get := func() int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(gohttp.MethodGet, "/readyz", nil))
		return rec.Code
	}

	if code := get(); code != gohttp.StatusOK {
		t.Errorf("ready: status = %d, want 200", code)
	}
	failing = true
	if code := get(); code != gohttp.StatusServiceUnavailable {
		t.Errorf("not ready: status = %d, want 503", code)
	}
}
