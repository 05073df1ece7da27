package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/stackauth/pkg/auth"
	"github.com/rhuss/stackauth/pkg/auth/jwt"
	"github.com/rhuss/stackauth/pkg/config"
	"github.com/rhuss/stackauth/pkg/storage"
	"github.com/rhuss/stackauth/pkg/transport"
	transporthttp "github.com/rhuss/stackauth/pkg/transport/http"
)

// adminScope grants access to key administration.
const adminScope = "admin"

// keyAdmin is implemented by the writable key stores. Both operations are
// scoped to the tenant stored in the context.
type keyAdmin interface {
	ListKeys(ctx context.Context) ([]storage.KeyInfo, error)
	RevokeKey(ctx context.Context, keyID string) error
}

// newAppMux is the application behind the gate: gateway endpoints under
// config.InternalPrefix, everything else forwarded upstream. Internal
// paths that match no endpoint answer 404 and never reach upstream.
func newAppMux(upstream http.Handler, b *backend, tokenTTL time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", upstream)
	mux.HandleFunc(config.InternalPrefix, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, transport.ErrorTypeNotFound, "not found")
	})

	if b.keys != nil {
		mux.Handle("GET "+config.InternalPrefix+"keys", requireScope(adminScope, listKeys(b.keys)))
		mux.Handle("DELETE "+config.InternalPrefix+"keys/{id}", requireScope(adminScope, revokeKey(b.keys)))
	}
	if b.issuer != nil {
		mux.Handle("POST "+config.InternalPrefix+"token", requireIdentity(issueToken(b.issuer, tokenTTL)))
	}
	return mux
}

// requireIdentity asks the gate to challenge callers that arrive without
// an identity (anonymous access).
func requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.IdentityFromContext(r.Context()) == nil {
			transporthttp.WriteResponse(w, auth.RequestChallenge())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireScope(scope string, next http.Handler) http.Handler {
	return requireIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFromContext(r.Context())
		if !id.HasScope(scope) {
			slog.Warn("admin request denied", "subject", id.Subject, "path", r.URL.Path)
			writeError(w, http.StatusForbidden, transport.ErrorTypeForbidden, "scope "+scope+" required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

type keyView struct {
	ID          string     `json:"id"`
	Subject     string     `json:"subject"`
	ServiceTier string     `json:"service_tier,omitempty"`
	TenantID    string     `json:"tenant_id,omitempty"`
	Scopes      []string   `json:"scopes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Revoked     bool       `json:"revoked"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

func listKeys(store keyAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := store.ListKeys(r.Context())
		if err != nil {
			slog.Error("listing keys failed", "error", err)
			writeError(w, http.StatusInternalServerError, transport.ErrorTypeServerError, "listing keys failed")
			return
		}

		out := make([]keyView, 0, len(keys))
		for _, k := range keys {
			out = append(out, keyView{
				ID:          k.ID,
				Subject:     k.Subject,
				ServiceTier: k.ServiceTier,
				TenantID:    k.TenantID,
				Scopes:      k.Scopes,
				CreatedAt:   k.CreatedAt,
				Revoked:     k.Revoked(),
				RevokedAt:   k.RevokedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"keys": out})
	}
}

func revokeKey(store keyAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyID := r.PathValue("id")
		err := store.RevokeKey(r.Context(), keyID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, transport.ErrorTypeNotFound, "key not found")
		case err != nil:
			slog.Error("revoking key failed", "key_id", keyID, "error", err)
			writeError(w, http.StatusInternalServerError, transport.ErrorTypeServerError, "revoking key failed")
		default:
			slog.Info("api key revoked",
				"key_id", keyID,
				"by", auth.IdentityFromContext(r.Context()).Subject,
				"tenant", storage.GetTenant(r.Context()),
			)
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// issueToken trades the caller's current credential for a short-lived JWT
// carrying the same identity.
func issueToken(issuer *jwt.Verifier, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFromContext(r.Context())
		token, err := issuer.Issue(id, ttl)
		if err != nil {
			slog.Error("issuing token failed", "subject", id.Subject, "error", err)
			writeError(w, http.StatusInternalServerError, transport.ErrorTypeServerError, "issuing token failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(ttl.Seconds()),
		})
	}
}

func writeError(w http.ResponseWriter, status int, errType transport.ErrorType, msg string) {
	transporthttp.WriteResponse(w, transport.ErrorResponse(status, errType, msg))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
