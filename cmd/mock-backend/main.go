// Command mock-backend runs a small upstream application for trying out
// the gateway. It echoes the identity headers the gateway forwards and
// asks the gateway to challenge the caller (401 with
// "WWW-Authenticate: Stack") when a protected path is hit anonymously.
//
// Routes:
//
//	GET /healthz    - liveness
//	GET /whoami     - forwarded identity as JSON, anonymous allowed
//	    /private/*  - requires an identity
//	    /admin/*    - requires an identity with the "admin" scope
//	    /           - public greeting
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	srv := &http.Server{Addr: ":" + port, Handler: newMux()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /whoami", handleWhoami)
	mux.HandleFunc("/private/", requireIdentity(handleWhoami))
	mux.HandleFunc("/admin/", requireIdentity(requireScope("admin", handleWhoami)))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("hello from the mock backend\n"))
	})
	return mux
}

// --- Identity ---

type identity struct {
	Subject string   `json:"subject,omitempty"`
	Tenant  string   `json:"tenant,omitempty"`
	Tier    string   `json:"tier,omitempty"`
	Scopes  []string `json:"scopes,omitempty"`
}

func identityFrom(r *http.Request) identity {
	return identity{
		Subject: r.Header.Get("X-Authenticated-Subject"),
		Tenant:  r.Header.Get("X-Authenticated-Tenant"),
		Tier:    r.Header.Get("X-Authenticated-Tier"),
		Scopes:  strings.Fields(r.Header.Get("X-Authenticated-Scopes")),
	}
}

// --- Handlers ---

func handleWhoami(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"path":          r.URL.Path,
		"authenticated": id.Subject != "",
		"identity":      id,
	})
}

// requireIdentity answers anonymous requests with the challenge signal so
// the gateway in front can turn it into a real challenge.
func requireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identityFrom(r).Subject == "" {
			slog.Info("anonymous request to protected path, requesting challenge", "path", r.URL.Path)
			w.Header().Set("WWW-Authenticate", "Stack")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func requireScope(scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, s := range identityFrom(r).Scopes {
			if s == scope {
				next(w, r)
				return
			}
		}
		http.Error(w, "missing scope "+scope, http.StatusForbidden)
	}
}
