// Command server runs the stackauth authentication gateway: a reverse
// proxy that authenticates requests before forwarding them upstream.
//
// Configuration is read from a YAML file and STACKAUTH_* environment
// variables (see pkg/config). The most common variables:
//
//	STACKAUTH_CONFIG       - Path to the config file
//	STACKAUTH_UPSTREAM_URL - Application to protect (required)
//	STACKAUTH_PORT         - Listen port (default: 8080)
//	STACKAUTH_AUTH_TYPE    - "none", "apikey" or "jwt" (default: "none")
//	STACKAUTH_ANONYMOUS    - Let unauthenticated requests through (default: false)
//
// Gateway endpoints, served behind the gate and never forwarded:
//
//	GET    /_stackauth/keys       List the caller tenant's API keys (scope "admin",
//	                              key_store memory or postgres)
//	DELETE /_stackauth/keys/{id}  Revoke an API key (same conditions)
//	POST   /_stackauth/token      Exchange the current credential for a short-lived
//	                              JWT (auth.type jwt with a secret)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/rhuss/stackauth/pkg/auth"
	"github.com/rhuss/stackauth/pkg/config"
	"github.com/rhuss/stackauth/pkg/debug"
	"github.com/rhuss/stackauth/pkg/observability"
	"github.com/rhuss/stackauth/pkg/transport"
	transporthttp "github.com/rhuss/stackauth/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level)
	debug.Log(debug.CategoryConfig, "configuration loaded",
		"auth_type", cfg.Auth.Type,
		"challenge", cfg.Auth.Challenge,
		"anonymous", cfg.Auth.Anonymous,
		"key_store", cfg.Auth.KeyStore,
	)

	ctx := context.Background()

	b, err := buildBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	challenge := buildChallenge(cfg.Auth)

	var opts []auth.VerifyOption
	opts = append(opts, auth.WithVerifierName(cfg.Auth.Type))
	if limiter := buildLimiter(cfg.Auth.RateLimits); limiter != nil {
		opts = append(opts, auth.WithRateLimiter(limiter))
	}

	gateCfg := auth.Config{
		Challenge:    challenge,
		Authenticate: auth.VerifyingAuthenticate(b.verifier, challenge, opts...),
		Anonymous:    cfg.Auth.Anonymous,
	}
	if cfg.Auth.Type == "none" {
		gateCfg.Check = auth.CheckFunc(func(*transport.Request) bool { return true })
	}

	gate, err := auth.Middleware(gateCfg)
	if err != nil {
		return fmt.Errorf("creating authentication gate: %w", err)
	}

	proxy, err := newUpstreamProxy(cfg.Server.UpstreamURL)
	if err != nil {
		return err
	}

	srvOpts := []transporthttp.ServerOption{
		transporthttp.WithAddr(":" + strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	}
	if b.ready != nil {
		srvOpts = append(srvOpts, transporthttp.WithReadyCheck(b.ready))
	}

	srv := transporthttp.NewServer(
		transporthttp.FromHTTP(newAppMux(proxy, b, cfg.Auth.JWT.TokenTTL)),
		[]transport.Middleware{observability.MetricsMiddleware(), gate},
		srvOpts...,
	)

	if cfg.Observability.Metrics.Enabled {
		srv.Mount("GET "+cfg.Observability.Metrics.Path, observability.Handler())
	}
	for _, p := range cfg.Auth.BypassPaths {
		srv.Mount(p, proxy)
	}

	slog.Info("stackauth starting",
		"port", cfg.Server.Port,
		"upstream", cfg.Server.UpstreamURL,
		"auth", cfg.Auth.Type,
		"anonymous", cfg.Auth.Anonymous,
		"bypass", strings.Join(cfg.Auth.BypassPaths, ","),
		"debug", strings.Join(debug.Categories(), ","),
		"key_admin", b.keys != nil,
		"token_endpoint", b.issuer != nil,
	)

	return srv.ListenAndServe()
}
