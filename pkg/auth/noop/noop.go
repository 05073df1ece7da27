// Package noop provides a verifier that accepts every request.
// Used for development and as the last voter in a chain.
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/stackauth/pkg/auth"
)

// Verifier always returns Yes with a default anonymous identity.
type Verifier struct{}

func (Verifier) Verify(_ context.Context, _ *http.Request) auth.Result {
	return auth.Result{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject:     "anonymous",
			ServiceTier: "default",
		},
	}
}
