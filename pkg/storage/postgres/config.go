package postgres

import (
	"errors"
	"time"
)

// Config holds the key store connection settings.
type Config struct {
	// DSN is the PostgreSQL connection string.
	DSN string

	// MaxConns caps the pool size (default: 25).
	MaxConns int32

	// MinConns keeps a few connections warm for the lookup path (default: 2).
	MinConns int32

	// MaxConnLifetime recycles pooled connections (default: 30 minutes).
	MaxConnLifetime time.Duration

	// LookupTimeout bounds a single key lookup. Lookups run on every
	// gated request, so they get a tighter deadline than the caller's
	// context (default: 2 seconds).
	LookupTimeout time.Duration

	// MigrateOnStart applies the embedded schema when the store opens.
	MigrateOnStart bool
}

func (c *Config) defaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 25
	}
	if c.MinConns == 0 {
		c.MinConns = 2
	}
	if c.MinConns > c.MaxConns {
		c.MinConns = c.MaxConns
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 30 * time.Minute
	}
	if c.LookupTimeout == 0 {
		c.LookupTimeout = 2 * time.Second
	}
}

func (c Config) validate() error {
	if c.DSN == "" {
		return errors.New("postgres: dsn is required")
	}
	if c.MaxConns < 0 || c.MinConns < 0 {
		return errors.New("postgres: connection limits must not be negative")
	}
	return nil
}
