// Package memory provides an in-memory API key store for testing and
// single-instance deployments. Keys are lost when the process restarts.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rhuss/stackauth/pkg/auth"
	"github.com/rhuss/stackauth/pkg/auth/apikey"
	"github.com/rhuss/stackauth/pkg/storage"
)

// entry holds a stored key and its metadata.
type entry struct {
	info     storage.KeyInfo
	identity auth.Identity
}

// Store is an in-memory key store.
type Store struct {
	mu     sync.RWMutex
	byHash map[[32]byte]*entry
	byID   map[string][32]byte
	now    func() time.Time
}

// Ensure Store implements apikey.KeyStore at compile time.
var _ apikey.KeyStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		byHash: make(map[[32]byte]*entry),
		byID:   make(map[string][32]byte),
		now:    time.Now,
	}
}

// CreateKey stores hash for identity and returns the new key ID.
// The tenant is taken from the identity metadata.
func (s *Store) CreateKey(_ context.Context, hash [32]byte, identity auth.Identity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[hash]; exists {
		return "", storage.ErrConflict
	}

	id := storage.NewKeyID()
	s.byHash[hash] = &entry{
		info: storage.KeyInfo{
			ID:          id,
			Subject:     identity.Subject,
			ServiceTier: identity.ServiceTier,
			TenantID:    identity.TenantID(),
			Scopes:      append([]string(nil), identity.Scopes...),
			CreatedAt:   s.now(),
		},
		identity: cloneIdentity(identity),
	}
	s.byID[id] = hash
	return id, nil
}

// LookupKey returns the identity for hash. Revoked keys are not found.
func (s *Store) LookupKey(_ context.Context, hash [32]byte) (*auth.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byHash[hash]
	if !ok || e.info.Revoked() {
		return nil, storage.ErrNotFound
	}

	id := cloneIdentity(e.identity)
	return &id, nil
}

// RevokeKey marks the key as revoked. Scoped by tenant when a tenant is
// present in the context.
func (s *Store) RevokeKey(ctx context.Context, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookupID(ctx, keyID)
	if !ok || e.info.Revoked() {
		return storage.ErrNotFound
	}

	now := s.now()
	e.info.RevokedAt = &now
	return nil
}

// ListKeys returns the keys visible to the tenant in ctx, oldest first.
func (s *Store) ListKeys(ctx context.Context) ([]storage.KeyInfo, error) {
	tenantID := storage.GetTenant(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.KeyInfo
	for _, e := range s.byHash {
		if tenantID != "" && e.info.TenantID != tenantID {
			continue
		}
		out = append(out, e.info)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// lookupID must be called with mu held.
func (s *Store) lookupID(ctx context.Context, keyID string) (*entry, bool) {
	hash, ok := s.byID[keyID]
	if !ok {
		return nil, false
	}
	e := s.byHash[hash]
	if tenantID := storage.GetTenant(ctx); tenantID != "" && e.info.TenantID != tenantID {
		return nil, false
	}
	return e, true
}

func cloneIdentity(id auth.Identity) auth.Identity {
	out := id
	out.Scopes = append([]string(nil), id.Scopes...)
	if id.Metadata != nil {
		out.Metadata = make(map[string]string, len(id.Metadata))
		for k, v := range id.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
