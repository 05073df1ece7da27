package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.UpstreamURL == "" {
		errs = append(errs, fmt.Errorf("server.upstream_url is required"))
	} else if u, err := url.Parse(c.Server.UpstreamURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.upstream_url must be an absolute URL, got %q", c.Server.UpstreamURL))
	}

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	switch c.Auth.Type {
	case "none", "apikey", "jwt":
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}

	switch c.Auth.Challenge {
	case "none", "bearer", "basic":
	case "redirect":
		if c.Auth.LoginURL == "" {
			errs = append(errs, fmt.Errorf("auth.login_url is required when auth.challenge is \"redirect\""))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.challenge must be \"none\", \"bearer\", \"basic\", or \"redirect\", got %q", c.Auth.Challenge))
	}

	if c.Auth.Type == "apikey" {
		switch c.Auth.KeyStore {
		case "config", "memory":
		case "postgres":
			if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
				errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when auth.key_store is \"postgres\""))
			}
		default:
			errs = append(errs, fmt.Errorf("auth.key_store must be \"config\", \"memory\", or \"postgres\", got %q", c.Auth.KeyStore))
		}
	}

	for i, k := range c.Auth.APIKeys {
		if k.Key == "" && k.KeyFile == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d]: key or key_file is required", i))
		}
		if k.Subject == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].subject is required", i))
		}
		// JWT-shaped bearer tokens never reach the API key verifier.
		if c.Auth.Type == "jwt" && strings.Count(k.Key, ".") == 2 {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].key must not contain exactly two dots when auth.type is \"jwt\"", i))
		}
	}

	if c.Auth.Type == "jwt" {
		hasSecret := c.Auth.JWT.Secret != "" || c.Auth.JWT.SecretFile != ""
		switch {
		case c.Auth.JWT.JWKSURL == "" && !hasSecret:
			errs = append(errs, fmt.Errorf("auth.jwt.jwks_url or auth.jwt.secret is required when auth.type is \"jwt\""))
		case c.Auth.JWT.JWKSURL != "" && hasSecret:
			errs = append(errs, fmt.Errorf("auth.jwt.jwks_url and auth.jwt.secret are mutually exclusive"))
		}
	}

	if c.Auth.RateLimits.DefaultRPM < 0 {
		errs = append(errs, fmt.Errorf("auth.rate_limits.default_rpm must be >= 0, got %d", c.Auth.RateLimits.DefaultRPM))
	}
	for tier, rpm := range c.Auth.RateLimits.Tiers {
		if rpm < 0 {
			errs = append(errs, fmt.Errorf("auth.rate_limits.tiers[%s] must be >= 0, got %d", tier, rpm))
		}
	}

	errs = append(errs, c.validateBypassPaths()...)

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with /, got %q", c.Observability.Metrics.Path))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be \"trace\", \"debug\", \"info\", \"warn\", or \"error\", got %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// validateBypassPaths rejects entries that would collide with another
// route on the server mux or remove the gate altogether.
func (c *Config) validateBypassPaths() []error {
	reserved := map[string]string{
		"/healthz": "health",
		"/readyz":  "readiness",
	}
	if c.Observability.Metrics.Enabled {
		reserved[c.Observability.Metrics.Path] = "metrics"
	}

	var errs []error
	seen := make(map[string]bool, len(c.Auth.BypassPaths))
	for _, p := range c.Auth.BypassPaths {
		switch {
		case !strings.HasPrefix(p, "/"):
			errs = append(errs, fmt.Errorf("auth.bypass_paths entry %q must start with /", p))
		case strings.ContainsAny(p, " \t{}"):
			errs = append(errs, fmt.Errorf("auth.bypass_paths entry %q must be a plain path", p))
		case p == "/":
			errs = append(errs, fmt.Errorf("auth.bypass_paths entry \"/\" would disable authentication"))
		case strings.HasPrefix(p+"/", InternalPrefix):
			errs = append(errs, fmt.Errorf("auth.bypass_paths entry %q is under the reserved prefix %s", p, InternalPrefix))
		case reserved[p] != "":
			errs = append(errs, fmt.Errorf("auth.bypass_paths entry %q collides with the %s endpoint", p, reserved[p]))
		case seen[p]:
			errs = append(errs, fmt.Errorf("auth.bypass_paths entry %q is listed twice", p))
		}
		seen[p] = true
	}
	return errs
}
