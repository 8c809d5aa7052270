package middleware

import (
	"net/http"

	"github.com/example/pos-backend/internal/tenant"
)

// TenantMiddleware resolves the tenant for the request from the
// X-Tenant-ID header and stores it in the request context. A request
// without the header lands in the default tenant.
func TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(tenant.Header)
		if id == "" {
			id = tenant.DefaultTenant
		}
		ctx := tenant.WithTenant(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
