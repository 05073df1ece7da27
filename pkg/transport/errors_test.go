package transport

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse(http.StatusTooManyRequests, ErrorTypeTooManyRequests, "rate limit exceeded")

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var env ErrorEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if env.Error.Type != ErrorTypeTooManyRequests {
		t.Errorf("error type = %q, want %q", env.Error.Type, ErrorTypeTooManyRequests)
	}
	if env.Error.Message != "rate limit exceeded" {
		t.Errorf("error message = %q, want %q", env.Error.Message, "rate limit exceeded")
	}
}

func TestResponseClone(t *testing.T) {
	orig := NewTextResponse(http.StatusOK, "hello")
	orig.Header.Set("X-Test", "a")

	dup := orig.Clone()
	dup.Header.Set("X-Test", "b")
	dup.Body[0] = 'j'

	if orig.Header.Get("X-Test") != "a" {
		t.Errorf("original header mutated: %q", orig.Header.Get("X-Test"))
	}
	if string(orig.Body) != "hello" {
		t.Errorf("original body mutated: %q", orig.Body)
	}

	var nilResp *Response
	if nilResp.Clone() != nil {
		t.Error("Clone of nil response should be nil")
	}
}

func TestAttributes(t *testing.T) {
	a := Attributes{}
	if a.Has("x") {
		t.Error("empty bag reports key present")
	}
	a.Set("x", nil)
	if !a.Has("x") {
		t.Error("Has must report presence even for nil values")
	}
	a.Delete("x")
	if a.Has("x") {
		t.Error("key still present after Delete")
	}
}
