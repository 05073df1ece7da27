package auth

import (
	"context"
	"errors"
	"net/http"
)

// Decision represents the three possible outcomes of credential verification.
type Decision int

const (
	// Yes means credentials are valid. The chain stops and the identity is used.
	Yes Decision = iota

	// No means credentials are present but invalid. The chain stops and the
	// request is challenged, even when anonymous access is allowed.
	No

	// Abstain means this verifier cannot handle the credential type.
	// The chain continues to the next verifier.
	Abstain
)

// String returns the lower-case decision name used in logs and metrics.
func (d Decision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	case Abstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// Result carries the outcome of a verification attempt.
type Result struct {
	Decision Decision
	Identity *Identity // populated only when Decision == Yes
	Err      error     // populated only when Decision == No
}

// Identity represents an authenticated caller.
type Identity struct {
	// Subject is the unique identifier (required, non-empty).
	Subject string

	// ServiceTier selects the rate limit tier.
	ServiceTier string

	// Scopes lists the authorization scopes granted.
	Scopes []string

	// Metadata carries verifier-specific data.
	// The key "tenant_id" is used for storage multi-tenancy scoping.
	Metadata map[string]string
}

// TenantID returns the tenant identifier from metadata, or empty string.
func (id *Identity) TenantID() string {
	if id == nil || id.Metadata == nil {
		return ""
	}
	return id.Metadata["tenant_id"]
}

// HasScope reports whether the identity was granted scope.
func (id *Identity) HasScope(scope string) bool {
	if id == nil {
		return false
	}
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Verifier examines request credentials and returns a three-outcome vote.
type Verifier interface {
	Verify(ctx context.Context, r *http.Request) Result
}

// VerifierFunc is an adapter that allows using an ordinary function as a
// Verifier.
type VerifierFunc func(ctx context.Context, r *http.Request) Result

// Verify calls f(ctx, r).
func (f VerifierFunc) Verify(ctx context.Context, r *http.Request) Result {
	return f(ctx, r)
}

// Sentinel errors.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// Chain evaluates verifiers left to right and stops on the first Yes or No.
// When every verifier abstains (or the chain is empty) it abstains too, and
// the gate's anonymous setting decides.
type Chain []Verifier

// Verify runs the chain.
func (c Chain) Verify(ctx context.Context, r *http.Request) Result {
	for _, v := range c {
		result := v.Verify(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}
	return Result{Decision: Abstain}
}

// identityKey is a private type for the identity context key.
type identityKey struct{}

// SetIdentity stores the authenticated identity in the context.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the authenticated identity.
// Returns nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}
