package auth

import (
	"net/http"

	"github.com/rhuss/stackauth/pkg/transport"
)

// ChallengeStrategy turns a rejection response into one that tells the
// caller how to (re-)authenticate.
type ChallengeStrategy interface {
	Challenge(resp *transport.Response) *transport.Response
}

// ChallengeFunc is an adapter that allows using an ordinary function as a
// ChallengeStrategy.
type ChallengeFunc func(resp *transport.Response) *transport.Response

// Challenge calls f(resp).
func (f ChallengeFunc) Challenge(resp *transport.Response) *transport.Response {
	return f(resp)
}

// CheckStrategy reports whether authentication should be attempted for a
// request.
type CheckStrategy interface {
	Check(req *transport.Request) bool
}

// CheckFunc is an adapter that allows using an ordinary function as a
// CheckStrategy.
type CheckFunc func(req *transport.Request) bool

// Check calls f(req).
func (f CheckFunc) Check(req *transport.Request) bool {
	return f(req)
}

// AuthenticateStrategy performs credential verification for req and
// produces the response, typically by delegating to app on success.
// anonymous reports whether the gate permits unauthenticated access.
type AuthenticateStrategy interface {
	Authenticate(req *transport.Request, app transport.Handler, anonymous bool) (*transport.Response, error)
}

// AuthenticateFunc is an adapter that allows using an ordinary function as
// an AuthenticateStrategy.
type AuthenticateFunc func(req *transport.Request, app transport.Handler, anonymous bool) (*transport.Response, error)

// Authenticate calls f(req, app, anonymous).
func (f AuthenticateFunc) Authenticate(req *transport.Request, app transport.Handler, anonymous bool) (*transport.Response, error) {
	return f(req, app, anonymous)
}

// IdentityChallenge returns the response unchanged.
var IdentityChallenge ChallengeStrategy = ChallengeFunc(func(resp *transport.Response) *transport.Response {
	return resp
})

// ForbiddenChallenge discards the response and answers 403
// "Authentication not possible". It is the relay's fallback when no
// challenge strategy was configured.
var ForbiddenChallenge ChallengeStrategy = ChallengeFunc(func(*transport.Response) *transport.Response {
	return transport.NewTextResponse(http.StatusForbidden, "Authentication not possible")
})

// HasAuthorizationHeader reports whether the request carries an
// Authorization header, empty or not.
var HasAuthorizationHeader CheckStrategy = CheckFunc(func(req *transport.Request) bool {
	_, ok := req.Header()["Authorization"]
	return ok
})
