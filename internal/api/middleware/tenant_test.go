package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pos-backend/internal/tenant"
)

func TestTenantMiddleware_HeaderPresent(t *testing.T) {
	var got string
	handler := TenantMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = tenant.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set(tenant.Header, "store-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "store-42", got)
}

func TestTenantMiddleware_HeaderAbsent(t *testing.T) {
	var got string
	var ok bool
	handler := TenantMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = tenant.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, ok)
	assert.Equal(t, tenant.DefaultTenant, got)
}

func TestTenantMiddleware_EmptyHeaderFallsBack(t *testing.T) {
	var got string
	handler := TenantMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = tenant.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set(tenant.Header, "")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, tenant.DefaultTenant, got)
}
