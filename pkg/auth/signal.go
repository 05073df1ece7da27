package auth

import (
	"net/http"

	"github.com/rhuss/stackauth/pkg/transport"
)

// TokenAttribute is the request attribute that marks a request as already
// authenticated by an outer layer.
const TokenAttribute = "stack.authn.token"

// ChallengeHeader and ChallengeSentinel form, together with status 401, the
// signal a nested handler uses to ask an ancestor to issue a challenge.
// The header value must match exactly.
const (
	ChallengeHeader   = "WWW-Authenticate"
	ChallengeSentinel = "Stack"
)

// SetToken marks req as authenticated, storing token under TokenAttribute.
func SetToken(req *transport.Request, token any) {
	req.Attributes.Set(TokenAttribute, token)
}

// Token returns the token stored on req, or nil.
func Token(req *transport.Request) any {
	return req.Attributes.Get(TokenAttribute)
}

// HasToken reports whether req carries the token attribute. Presence is
// what counts, not the stored value.
func HasToken(req *transport.Request) bool {
	return req.Attributes.Has(TokenAttribute)
}

// RequestChallenge builds the response a nested handler returns to ask the
// nearest ChallengeRelay to challenge the caller.
func RequestChallenge() *transport.Response {
	resp := transport.NewResponse(http.StatusUnauthorized)
	resp.Header.Set(ChallengeHeader, ChallengeSentinel)
	return resp
}

// IsChallengeRequest reports whether resp is a challenge request: status
// exactly 401 and a WWW-Authenticate value of exactly "Stack".
func IsChallengeRequest(resp *transport.Response) bool {
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return false
	}
	return resp.Header.Get(ChallengeHeader) == ChallengeSentinel
}
