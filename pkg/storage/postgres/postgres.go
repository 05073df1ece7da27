// Package postgres provides a PostgreSQL API key store.
// It uses pgx/v5 for connection pooling; key metadata is stored as JSONB.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/stackauth/pkg/auth"
	"github.com/rhuss/stackauth/pkg/auth/apikey"
	"github.com/rhuss/stackauth/pkg/storage"
)

// Store is a PostgreSQL-backed key store.
type Store struct {
	pool          *pgxpool.Pool
	lookupTimeout time.Duration
}

// Ensure Store implements apikey.KeyStore at compile time.
var _ apikey.KeyStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, lookupTimeout: cfg.LookupTimeout}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// CreateKey stores hash for identity and returns the new key ID.
func (s *Store) CreateKey(ctx context.Context, hash [32]byte, identity auth.Identity) (string, error) {
	var metadataJSON []byte
	if len(identity.Metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(identity.Metadata)
		if err != nil {
			return "", fmt.Errorf("marshaling metadata: %w", err)
		}
	}

	scopes := identity.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	id := storage.NewKeyID()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO api_keys (id, key_hash, subject, service_tier, tenant_id, scopes, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		id, hash[:], identity.Subject, identity.ServiceTier, identity.TenantID(),
		scopes, nullJSON(metadataJSON),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return "", storage.ErrConflict
		}
		return "", fmt.Errorf("inserting key: %w", err)
	}

	return id, nil
}

// LookupKey returns the identity for hash. Revoked keys are not found.
func (s *Store) LookupKey(ctx context.Context, hash [32]byte) (*auth.Identity, error) {
	var (
		id           auth.Identity
		metadataJSON []byte
	)
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	err := s.pool.QueryRow(ctx, `
		SELECT subject, service_tier, scopes, metadata
		FROM api_keys
		WHERE key_hash = $1 AND revoked_at IS NULL
	`, hash[:]).Scan(&id.Subject, &id.ServiceTier, &id.Scopes, &metadataJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying key: %w", err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &id.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	if len(id.Scopes) == 0 {
		id.Scopes = nil
	}

	return &id, nil
}

// RevokeKey marks a key as revoked. Scoped by tenant when a tenant is
// present in the context.
func (s *Store) RevokeKey(ctx context.Context, keyID string) error {
	tenantID := storage.GetTenant(ctx)

	query := `UPDATE api_keys SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`
	args := []any{time.Now().UTC(), keyID}
	if tenantID != "" {
		query += ` AND tenant_id = $3`
		args = append(args, tenantID)
	}

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("revoking key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListKeys returns the keys visible to the tenant in ctx, oldest first.
func (s *Store) ListKeys(ctx context.Context) ([]storage.KeyInfo, error) {
	tenantID := storage.GetTenant(ctx)

	query := `SELECT id, subject, service_tier, tenant_id, scopes, created_at, revoked_at FROM api_keys`
	var args []any
	if tenantID != "" {
		query += ` WHERE tenant_id = $1`
		args = append(args, tenantID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []storage.KeyInfo
	for rows.Next() {
		var k storage.KeyInfo
		if err := rows.Scan(&k.ID, &k.Subject, &k.ServiceTier, &k.TenantID, &k.Scopes, &k.CreatedAt, &k.RevokedAt); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}

	return keys, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// nullJSON converts nil/empty byte slices to nil for nullable JSONB columns.
func nullJSON(b []byte) *[]byte {
	if len(b) == 0 {
		return nil
	}
	return &b
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
