package auth

import (
	"github.com/rhuss/stackauth/pkg/debug"
	"github.com/rhuss/stackauth/pkg/observability"
	"github.com/rhuss/stackauth/pkg/transport"
)

// ChallengeRelay wraps a handler and converts challenge requests coming out
// of it (see IsChallengeRequest) into real challenges. Every other response
// passes through unmodified.
type ChallengeRelay struct {
	inner     transport.Handler
	challenge ChallengeStrategy
}

// NewChallengeRelay wraps inner. A nil challenge falls back to
// ForbiddenChallenge.
func NewChallengeRelay(inner transport.Handler, challenge ChallengeStrategy) *ChallengeRelay {
	if challenge == nil {
		challenge = ForbiddenChallenge
	}
	return &ChallengeRelay{inner: inner, challenge: challenge}
}

// Handle runs the inner handler and applies the challenge strategy exactly
// once if the inner response is a challenge request.
func (r *ChallengeRelay) Handle(req *transport.Request) (*transport.Response, error) {
	resp, err := r.inner.Handle(req)
	if err != nil {
		return resp, err
	}

	if IsChallengeRequest(resp) {
		debug.Log(debug.CategoryAuth, "challenge requested by nested handler",
			"path", req.HTTP.URL.Path,
			"request_id", transport.RequestIDFromContext(req.Context()),
		)
		observability.ChallengesTotal.WithLabelValues("relay").Inc()
		return r.challenge.Challenge(resp), nil
	}

	if resp != nil {
		debug.Trace(debug.CategoryAuth, "relay pass-through", "status", resp.StatusCode)
	}
	return resp, nil
}
