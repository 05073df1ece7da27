package auth

import (
	"net/http"
	"strings"

	"github.com/rhuss/stackauth/pkg/transport"
)

// BearerChallenge sets `WWW-Authenticate: Bearer realm="<realm>"` on a copy
// of the response, keeping its status and body.
func BearerChallenge(realm string) ChallengeStrategy {
	return schemeChallenge("Bearer", realm)
}

// BasicChallenge sets `WWW-Authenticate: Basic realm="<realm>"` on a copy of
// the response, keeping its status and body.
func BasicChallenge(realm string) ChallengeStrategy {
	return schemeChallenge("Basic", realm)
}

func schemeChallenge(scheme, realm string) ChallengeStrategy {
	value := scheme
	if realm != "" {
		value = scheme + ` realm="` + escapeRealm(realm) + `"`
	}
	return ChallengeFunc(func(resp *transport.Response) *transport.Response {
		out := resp.Clone()
		if out.Header == nil {
			out.Header = make(http.Header)
		}
		out.Header.Set(ChallengeHeader, value)
		return out
	})
}

// escapeRealm drops characters that cannot appear in a quoted-string.
func escapeRealm(realm string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return -1
		}
		return r
	}, realm)
}

// RedirectChallenge answers with 302 Found pointing at loginURL, dropping
// the original response.
func RedirectChallenge(loginURL string) ChallengeStrategy {
	return ChallengeFunc(func(*transport.Response) *transport.Response {
		resp := transport.NewResponse(http.StatusFound)
		resp.Header.Set("Location", loginURL)
		return resp
	})
}
