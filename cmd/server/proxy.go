package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/rhuss/stackauth/pkg/auth"
)

// Identity headers set on requests forwarded upstream. Inbound values are
// always removed so callers cannot forge them.
const (
	headerSubject = "X-Authenticated-Subject"
	headerTenant  = "X-Authenticated-Tenant"
	headerTier    = "X-Authenticated-Tier"
	headerScopes  = "X-Authenticated-Scopes"
)

var identityHeaders = []string{headerSubject, headerTenant, headerTier, headerScopes}

// newUpstreamProxy returns a reverse proxy to upstream that forwards the
// authenticated identity, if any, as X-Authenticated-* headers.
func newUpstreamProxy(upstream string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream url: %w", err)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()

			for _, h := range identityHeaders {
				pr.Out.Header.Del(h)
			}

			id := auth.IdentityFromContext(pr.In.Context())
			if id == nil {
				return
			}
			pr.Out.Header.Set(headerSubject, id.Subject)
			if tenant := id.TenantID(); tenant != "" {
				pr.Out.Header.Set(headerTenant, tenant)
			}
			if id.ServiceTier != "" {
				pr.Out.Header.Set(headerTier, id.ServiceTier)
			}
			if len(id.Scopes) > 0 {
				pr.Out.Header.Set(headerScopes, strings.Join(id.Scopes, " "))
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("upstream request failed", "path", r.URL.Path, "error", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}, nil
}
