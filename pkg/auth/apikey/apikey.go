// Package apikey provides an API key verifier that validates bearer
// tokens against a key store using SHA-256 hashing. Plaintext keys are
// never stored or compared.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rhuss/stackauth/pkg/auth"
	"github.com/rhuss/stackauth/pkg/storage"
)

// KeyStore resolves the SHA-256 hash of an API key to an identity.
// Implementations return storage.ErrNotFound for unknown or revoked keys.
type KeyStore interface {
	LookupKey(ctx context.Context, hash [32]byte) (*auth.Identity, error)
}

// Hash returns the SHA-256 digest under which a key is stored.
func Hash(key string) [32]byte {
	return sha256.Sum256([]byte(key))
}

// Verifier validates bearer tokens against a KeyStore.
type Verifier struct {
	store KeyStore
}

// New creates an API key verifier backed by store.
func New(store KeyStore) *Verifier {
	return &Verifier{store: store}
}

// Verify extracts the bearer token and looks it up.
// Returns Yes if valid, No if a bearer token is present but unknown,
// Abstain if there is no Authorization header or it is not a Bearer token.
func (v *Verifier) Verify(ctx context.Context, r *http.Request) auth.Result {
	token, ok := bearerToken(r)
	if !ok {
		return auth.Result{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	id, err := v.store.LookupKey(ctx, Hash(token))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Error("api key lookup failed", "error", err)
			return auth.Result{Decision: auth.No, Err: fmt.Errorf("looking up api key: %w", err)}
		}
		return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	return auth.Result{Decision: auth.Yes, Identity: id}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

// RawKeyEntry is the configuration format for API keys.
type RawKeyEntry struct {
	Key      string
	Identity auth.Identity
}

type keyEntry struct {
	hash     [32]byte
	identity auth.Identity
}

// StaticStore is a read-only KeyStore built from configuration.
type StaticStore struct {
	keys []keyEntry
}

// NewStaticStore hashes entries immediately; plaintext keys are not kept.
func NewStaticStore(entries []RawKeyEntry) *StaticStore {
	s := &StaticStore{}
	for _, e := range entries {
		s.keys = append(s.keys, keyEntry{hash: Hash(e.Key), identity: e.Identity})
	}
	return s
}

// LookupKey compares hash against every entry in constant time.
func (s *StaticStore) LookupKey(_ context.Context, hash [32]byte) (*auth.Identity, error) {
	var found *auth.Identity
	for i := range s.keys {
		if subtle.ConstantTimeCompare(hash[:], s.keys[i].hash[:]) == 1 && found == nil {
			// Copy identity to avoid shared state.
			id := s.keys[i].identity
			found = &id
		}
	}
	if found == nil {
		return nil, storage.ErrNotFound
	}
	return found, nil
}
