package tenant

import "context"

// DefaultTenant is used when a request carries no tenant identifier.
const DefaultTenant = "public"

// Header is the HTTP header carrying the tenant identifier.
const Header = "X-Tenant-ID"

type contextKey struct{}

// WithTenant returns a context carrying the given tenant id.
// The tenant travels with the context and dies with it, so there is
// nothing to clear on exit paths and nothing to leak across requests.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, contextKey{}, tenantID)
}

// FromContext returns the tenant id attached to the context, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// FromContextOrDefault returns the attached tenant id, or DefaultTenant
// when the context carries none.
func FromContextOrDefault(ctx context.Context) string {
	if id, ok := FromContext(ctx); ok {
		return id
	}
	return DefaultTenant
}
