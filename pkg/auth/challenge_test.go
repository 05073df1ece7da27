package auth

import (
	"net/http"
	"testing"

	"github.com/rhuss/stackauth/pkg/transport"
)

func TestSchemeChallenges(t *testing.T) {
	tests := []struct {
		name     string
		strategy ChallengeStrategy
		want     string
	}{
		{"bearer", BearerChallenge("api"), `Bearer realm="api"`},
		{"basic", BasicChallenge("admin area"), `Basic realm="admin area"`},
		{"no realm", BearerChallenge(""), "Bearer"},
		{"quotes stripped", BasicChallenge(`a"b\c`), `Basic realm="abc"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := transport.NewTextResponse(http.StatusUnauthorized, "denied")
			out := tt.strategy.Challenge(in)

			if got := out.Header.Get("WWW-Authenticate"); got != tt.want {
				t.Errorf("WWW-Authenticate = %q, want %q", got, tt.want)
			}
			if out.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", out.StatusCode)
			}
			if string(out.Body) != "denied" {
				t.Errorf("body = %q, want %q", out.Body, "denied")
			}
			if in.Header.Get("WWW-Authenticate") != "" {
				t.Error("input response was modified")
			}
		})
	}
}

func TestSchemeChallenge_ReplacesSignal(t *testing.T) {
	out := BearerChallenge("api").Challenge(RequestChallenge())
	if IsChallengeRequest(out) {
		t.Error("challenged response still looks like a signal")
	}
}

func TestSchemeChallenge_NilHeader(t *testing.T) {
	out := BasicChallenge("x").Challenge(&transport.Response{StatusCode: http.StatusUnauthorized})
	if got := out.Header.Get("WWW-Authenticate"); got != `Basic realm="x"` {
		t.Errorf("WWW-Authenticate = %q", got)
	}
}

func TestRedirectChallenge(t *testing.T) {
	out := RedirectChallenge("/login").Challenge(transport.NewResponse(http.StatusUnauthorized))
	if out.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want 302", out.StatusCode)
	}
	if got := out.Header.Get("Location"); got != "/login" {
		t.Errorf("Location = %q, want %q", got, "/login")
	}
}

func TestForbiddenChallenge(t *testing.T) {
	out := ForbiddenChallenge.Challenge(RequestChallenge())
	if out.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", out.StatusCode)
	}
	if out.Header.Get("WWW-Authenticate") != "" {
		t.Error("forbidden response carries a WWW-Authenticate header")
	}
}
