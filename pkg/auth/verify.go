package auth

import (
	"log/slog"
	"net/http"

	"github.com/rhuss/stackauth/pkg/debug"
	"github.com/rhuss/stackauth/pkg/observability"
	"github.com/rhuss/stackauth/pkg/storage"
	"github.com/rhuss/stackauth/pkg/transport"
)

// VerifyOption configures VerifyingAuthenticate.
type VerifyOption func(*verifyConfig)

type verifyConfig struct {
	name    string
	limiter RateLimiter
}

// WithRateLimiter enforces limiter after successful verification.
func WithRateLimiter(limiter RateLimiter) VerifyOption {
	return func(c *verifyConfig) { c.limiter = limiter }
}

// WithVerifierName sets the verifier label used in metrics.
func WithVerifierName(name string) VerifyOption {
	return func(c *verifyConfig) { c.name = name }
}

// VerifyingAuthenticate builds an AuthenticateStrategy from a Verifier.
//
//   - Yes: the identity is stored in the request context (and its tenant in
//     the storage context), the request is marked with the token attribute
//     and delegated to the application through a ChallengeRelay.
//   - No: the caller is challenged with a 401, whatever the anonymous setting.
//   - Abstain: delegated through a ChallengeRelay when anonymous access is
//     allowed, challenged otherwise.
//
// challenge should be the same strategy the gate uses; nil means
// IdentityChallenge.
func VerifyingAuthenticate(v Verifier, challenge ChallengeStrategy, opts ...VerifyOption) AuthenticateStrategy {
	cfg := verifyConfig{name: "default"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if challenge == nil {
		challenge = IdentityChallenge
	}

	return AuthenticateFunc(func(req *transport.Request, app transport.Handler, anonymous bool) (*transport.Response, error) {
		ctx := req.Context()
		result := v.Verify(ctx, req.HTTP)
		observability.VerificationsTotal.WithLabelValues(cfg.name, result.Decision.String()).Inc()

		switch result.Decision {
		case Yes:
			id := result.Identity
			if id == nil || id.Subject == "" {
				slog.Error("verifier returned identity with empty subject", "verifier", cfg.name)
				return transport.ErrorResponse(http.StatusInternalServerError, transport.ErrorTypeServerError, "internal authentication error"), nil
			}

			if cfg.limiter != nil {
				if err := cfg.limiter.Allow(ctx, id); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", id.Subject,
						"tier", id.ServiceTier,
					)
					observability.RateLimitRejectedTotal.WithLabelValues(tierLabel(id)).Inc()
					return transport.ErrorResponse(http.StatusTooManyRequests, transport.ErrorTypeTooManyRequests, "rate limit exceeded"), nil
				}
			}

			debug.Log(debug.CategoryAuth, "authentication succeeded",
				"subject", id.Subject,
				"path", req.HTTP.URL.Path,
				"remote_addr", req.HTTP.RemoteAddr,
			)

			ctx = SetIdentity(ctx, id)
			if tenantID := id.TenantID(); tenantID != "" {
				ctx = storage.SetTenant(ctx, tenantID)
			}
			req = req.WithContext(ctx)
			SetToken(req, id)

			return NewChallengeRelay(app, challenge).Handle(req)

		case No:
			slog.Warn("authentication failed",
				"path", req.HTTP.URL.Path,
				"remote_addr", req.HTTP.RemoteAddr,
				"error", result.Err,
			)
			return challenge.Challenge(transport.NewResponse(http.StatusUnauthorized)), nil
		}

		if anonymous {
			return NewChallengeRelay(app, challenge).Handle(req)
		}
		return challenge.Challenge(transport.NewResponse(http.StatusUnauthorized)), nil
	})
}

func tierLabel(id *Identity) string {
	if id.ServiceTier == "" {
		return "default"
	}
	return id.ServiceTier
}
