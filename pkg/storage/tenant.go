package storage

import "context"

type tenantKey struct{}

// SetTenant scopes key store operations on ctx to tenantID. The gate sets
// it from the verified identity; an empty ID means no scoping.
func SetTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// GetTenant returns the tenant set by SetTenant, or "".
func GetTenant(ctx context.Context) string {
	tenantID, _ := ctx.Value(tenantKey{}).(string)
	return tenantID
}
