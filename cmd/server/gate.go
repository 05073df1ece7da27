package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rhuss/stackauth/pkg/auth"
	"github.com/rhuss/stackauth/pkg/auth/apikey"
	"github.com/rhuss/stackauth/pkg/auth/jwt"
	"github.com/rhuss/stackauth/pkg/auth/noop"
	"github.com/rhuss/stackauth/pkg/config"
	"github.com/rhuss/stackauth/pkg/debug"
	"github.com/rhuss/stackauth/pkg/storage"
	"github.com/rhuss/stackauth/pkg/storage/memory"
	"github.com/rhuss/stackauth/pkg/storage/postgres"
)

// keyWriter is implemented by the mutable key stores.
type keyWriter interface {
	CreateKey(ctx context.Context, hash [32]byte, identity auth.Identity) (string, error)
}

// buildChallenge maps auth.challenge onto a challenge strategy.
func buildChallenge(cfg config.AuthConfig) auth.ChallengeStrategy {
	switch cfg.Challenge {
	case "bearer":
		return auth.BearerChallenge(cfg.Realm)
	case "basic":
		return auth.BasicChallenge(cfg.Realm)
	case "redirect":
		return auth.RedirectChallenge(cfg.LoginURL)
	default:
		return auth.IdentityChallenge
	}
}

// buildLimiter returns nil when no limit is configured.
func buildLimiter(cfg config.RateLimitConfig) auth.RateLimiter {
	if cfg.DefaultRPM == 0 && len(cfg.Tiers) == 0 {
		return nil
	}
	tiers := make(map[string]auth.TierConfig, len(cfg.Tiers))
	for name, rpm := range cfg.Tiers {
		tiers[name] = auth.TierConfig{RequestsPerMinute: rpm}
	}
	return auth.NewInProcessLimiter(tiers, cfg.DefaultRPM)
}

// backend is the credential verification side of the gateway.
type backend struct {
	verifier auth.Verifier

	// keys is set when API keys live in a writable store and can be
	// administered at runtime.
	keys keyAdmin

	// issuer is set when the JWT verifier holds a signing secret.
	issuer *jwt.Verifier

	// ready, when not nil, reports backend health.
	ready func(context.Context) error

	close func()
}

// buildBackend creates the credential verifier for auth.type together
// with the optional key administration and token issuing capabilities.
func buildBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{close: func() {}}

	switch cfg.Auth.Type {
	case "none":
		b.verifier = noop.Verifier{}
		return b, nil

	case "jwt":
		jv, err := jwt.New(jwt.Config{
			Issuer:      cfg.Auth.JWT.Issuer,
			Audience:    cfg.Auth.JWT.Audience,
			JWKSURL:     cfg.Auth.JWT.JWKSURL,
			Secret:      []byte(cfg.Auth.JWT.Secret),
			UserClaim:   cfg.Auth.JWT.Claims.Subject,
			TenantClaim: cfg.Auth.JWT.Claims.Tenant,
			ScopesClaim: cfg.Auth.JWT.Claims.Scopes,
			TierClaim:   cfg.Auth.JWT.Claims.Tier,
			CacheTTL:    cfg.Auth.JWT.CacheTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("creating jwt verifier: %w", err)
		}
		if cfg.Auth.JWT.Secret != "" {
			b.issuer = jv
		}
		b.verifier = jv
		if len(cfg.Auth.APIKeys) > 0 {
			// Service accounts keep static keys next to user JWTs.
			keys := apikey.New(apikey.NewStaticStore(rawKeys(cfg.Auth.APIKeys)))
			b.verifier = auth.Chain{jv, keys}
		}
		return b, nil

	case "apikey":
		switch cfg.Auth.KeyStore {
		case "memory":
			store := memory.New()
			if err := seedKeys(ctx, store, cfg.Auth.APIKeys); err != nil {
				return nil, err
			}
			b.verifier = apikey.New(store)
			b.keys = store
			return b, nil

		case "postgres":
			store, err := postgres.New(ctx, postgres.Config{
				DSN:            cfg.Storage.Postgres.DSN,
				MaxConns:       cfg.Storage.Postgres.MaxConns,
				MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
				LookupTimeout:  cfg.Storage.Postgres.LookupTimeout,
			})
			if err != nil {
				return nil, fmt.Errorf("creating postgres key store: %w", err)
			}
			if err := seedKeys(ctx, store, cfg.Auth.APIKeys); err != nil {
				store.Close()
				return nil, err
			}
			b.verifier = apikey.New(store)
			b.keys = store
			b.ready = store.HealthCheck
			b.close = func() { store.Close() }
			return b, nil

		default:
			b.verifier = apikey.New(apikey.NewStaticStore(rawKeys(cfg.Auth.APIKeys)))
			return b, nil
		}
	}

	return nil, fmt.Errorf("unsupported auth type %q", cfg.Auth.Type)
}

// seedKeys stores configured keys. Keys that already exist are skipped.
func seedKeys(ctx context.Context, store keyWriter, keys []config.APIKeyConfig) error {
	for _, raw := range rawKeys(keys) {
		id, err := store.CreateKey(ctx, apikey.Hash(raw.Key), raw.Identity)
		switch {
		case errors.Is(err, storage.ErrConflict):
			debug.Log(debug.CategoryStorage, "api key already present", "subject", raw.Identity.Subject)
		case err != nil:
			return fmt.Errorf("seeding api key for %q: %w", raw.Identity.Subject, err)
		default:
			slog.Info("api key registered", "id", id, "subject", raw.Identity.Subject, "key", debug.Redact(raw.Key))
		}
	}
	return nil
}

func rawKeys(keys []config.APIKeyConfig) []apikey.RawKeyEntry {
	entries := make([]apikey.RawKeyEntry, 0, len(keys))
	for _, k := range keys {
		id := auth.Identity{
			Subject:     k.Subject,
			ServiceTier: k.ServiceTier,
			Scopes:      k.Scopes,
		}
		if k.TenantID != "" {
			id.Metadata = map[string]string{"tenant_id": k.TenantID}
		}
		entries = append(entries, apikey.RawKeyEntry{Key: k.Key, Identity: id})
	}
	return entries
}
