package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRoutes(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		subject    string
		scopes     string
		wantCode   int
		wantSignal bool
	}{
		{"public", "/", "", "", http.StatusOK, false},
		{"whoami anonymous", "/whoami", "", "", http.StatusOK, false},
		{"private anonymous", "/private/data", "", "", http.StatusUnauthorized, true},
		{"private authenticated", "/private/data", "alice", "", http.StatusOK, false},
		{"admin without scope", "/admin/x", "alice", "read", http.StatusForbidden, false},
		{"admin with scope", "/admin/x", "alice", "read admin", http.StatusOK, false},
		{"admin anonymous", "/admin/x", "", "admin", http.StatusUnauthorized, true},
	}

	mux := newMux()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.subject != "" {
				req.Header.Set("X-Authenticated-Subject", tt.subject)
			}
			if tt.scopes != "" {
				req.Header.Set("X-Authenticated-Scopes", tt.scopes)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			gotSignal := rec.Header().Get("WWW-Authenticate") == "Stack"
			if gotSignal != tt.wantSignal {
				t.Errorf("signal = %v, want %v", gotSignal, tt.wantSignal)
			}
		})
	}
}

func TestWhoamiEchoesIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Authenticated-Subject", "alice")
	req.Header.Set("X-Authenticated-Tenant", "org-1")
	req.Header.Set("X-Authenticated-Scopes", "read write")
	rec := httptest.NewRecorder()
	newMux().ServeHTTP(rec, req)

	var body struct {
		Authenticated bool     `json:"authenticated"`
		Identity      identity `json:"identity"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !body.Authenticated {
		t.Error("authenticated = false, want true")
	}
	if body.Identity.Subject != "alice" || body.Identity.Tenant != "org-1" {
		t.Errorf("identity = %+v, want alice/org-1", body.Identity)
	}
	if len(body.Identity.Scopes) != 2 {
		t.Errorf("scopes = %v, want 2", body.Identity.Scopes)
	}
}
