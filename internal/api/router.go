package api

import (
	"net/http"
	"strings"

	"github.com/example/pos-backend/internal/api/middleware"
	"github.com/example/pos-backend/internal/auth"
	"github.com/example/pos-backend/internal/domain/user"
)

func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, jwtService *auth.JWTService) http.Handler {
	mux := http.NewServeMux()

	authRequired := middleware.AuthMiddleware(jwtService)
	adminOnly := middleware.RequireRole(user.RoleAdmin)
	protect := func(h http.HandlerFunc) http.Handler {
		return authRequired(h)
	}
	protectAdmin := func(h http.HandlerFunc) http.Handler {
		return authRequired(adminOnly(h))
	}

	// Auth
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		requireMethod(w, r, http.MethodPost, authHandlers.Register)
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		requireMethod(w, r, http.MethodPost, authHandlers.Login)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		requireMethod(w, r, http.MethodPost, authHandlers.Refresh)
	})
	mux.Handle("/auth/me", protect(authHandlers.Me))

	// Products
	mux.Handle("/products", protect(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProducts(w, r)
		case http.MethodPost:
			handlers.CreateProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/products/low-stock", protect(func(w http.ResponseWriter, r *http.Request) {
		requireMethod(w, r, http.MethodGet, handlers.GetLowStockProducts)
	}))

	mux.Handle("/products/", protect(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/stock") && r.Method == http.MethodPost:
			handlers.AdjustStock(w, r)
		case r.Method == http.MethodGet:
			handlers.GetProduct(w, r)
		case r.Method == http.MethodPut:
			handlers.UpdateProduct(w, r)
		case r.Method == http.MethodDelete:
			handlers.DeleteProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Sales
	mux.Handle("/sales", protect(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetSales(w, r)
		case http.MethodPost:
			handlers.CreateSale(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/sales/sync", protect(func(w http.ResponseWriter, r *http.Request) {
		requireMethod(w, r, http.MethodPost, handlers.SyncOfflineSales)
	}))

	mux.Handle("/sales/", protect(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/status") && r.Method == http.MethodPost:
			handlers.UpdateSaleStatus(w, r)
		case r.Method == http.MethodGet:
			handlers.GetSale(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Reports
	mux.Handle("/reports/daily", protectAdmin(func(w http.ResponseWriter, r *http.Request) {
		requireMethod(w, r, http.MethodGet, handlers.GetDailyReport)
	}))

	return middleware.TenantMiddleware(withLogging(mux))
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string, handler http.HandlerFunc) {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	handler(w, r)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		println("[API]", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
