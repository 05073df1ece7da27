// Package config provides unified configuration for the stackauth gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (STACKAUTH_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// InternalPrefix is the path prefix of the gateway's own endpoints (key
// administration, token issuing). They sit behind the gate and are never
// forwarded upstream.
const InternalPrefix = "/_stackauth/"

// Config holds all configuration for the stackauth gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 120s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 10 MiB
	UpstreamURL     string        `yaml:"upstream_url"`     // required
}

// AuthConfig holds authentication gate settings.
type AuthConfig struct {
	Type      string `yaml:"type"`      // "none", "apikey" or "jwt", default: "none"
	Anonymous bool   `yaml:"anonymous"` // let unauthenticated requests through

	// Challenge selects the challenge strategy: "none", "bearer", "basic"
	// or "redirect". Default: "bearer".
	Challenge string `yaml:"challenge"`
	Realm     string `yaml:"realm"`     // default: "stackauth"
	LoginURL  string `yaml:"login_url"` // required for challenge=redirect

	// KeyStore selects where API keys live: "config", "memory" or
	// "postgres". Default: "config".
	KeyStore string         `yaml:"key_store"`
	APIKeys  []APIKeyConfig `yaml:"api_keys"`

	JWT JWTConfig `yaml:"jwt"`

	// BypassPaths are served without authentication.
	BypassPaths []string `yaml:"bypass_paths"`

	RateLimits RateLimitConfig `yaml:"rate_limits"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string   `yaml:"key" json:"key"`
	KeyFile     string   `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject     string   `yaml:"subject" json:"subject"`
	TenantID    string   `yaml:"tenant_id" json:"tenant_id"`
	ServiceTier string   `yaml:"service_tier" json:"service_tier"`
	Scopes      []string `yaml:"scopes" json:"scopes"`
}

// JWTConfig holds JWT verification settings.
type JWTConfig struct {
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	JWKSURL    string        `yaml:"jwks_url"`
	Secret     string        `yaml:"secret"`
	SecretFile string        `yaml:"secret_file"` // _file variant for secret
	CacheTTL   time.Duration `yaml:"cache_ttl"`   // default: 1h
	TokenTTL   time.Duration `yaml:"token_ttl"`   // lifetime of issued tokens, default: 15m
	Claims     ClaimsConfig  `yaml:"claims"`
}

// ClaimsConfig maps JWT claims onto identity fields. Empty values use the
// verifier defaults.
type ClaimsConfig struct {
	Subject string `yaml:"subject"`
	Tenant  string `yaml:"tenant"`
	Scopes  string `yaml:"scopes"`
	Tier    string `yaml:"tier"`
}

// RateLimitConfig holds per-tier request limits. Zero disables limiting.
type RateLimitConfig struct {
	DefaultRPM int            `yaml:"default_rpm"`
	Tiers      map[string]int `yaml:"tiers"` // tier -> requests per minute
}

// StorageConfig holds key store backend settings.
type StorageConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false

	LookupTimeout time.Duration `yaml:"lookup_timeout"` // default: 2s
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log output settings. The STACKAUTH_DEBUG and
// STACKAUTH_LOG_LEVEL environment variables take precedence.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"; default: "info"
	Debug string `yaml:"debug"` // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodySize:     10 << 20,
		},
		Auth: AuthConfig{
			Type:      "none",
			Challenge: "bearer",
			Realm:     "stackauth",
			KeyStore:  "config",
			JWT: JWTConfig{
				CacheTTL: time.Hour,
				TokenTTL: 15 * time.Minute,
			},
		},
		Storage: StorageConfig{
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
