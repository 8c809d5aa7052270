package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/pos-backend/internal/api/middleware"
	"github.com/example/pos-backend/internal/domain/product"
	"github.com/example/pos-backend/internal/domain/sale"
	"github.com/example/pos-backend/internal/domain/user"
	"github.com/example/pos-backend/internal/tenant"
)

type Handlers struct {
	products *product.Service
	sales    *sale.Service
}

func NewHandlers(products *product.Service, sales *sale.Service) *Handlers {
	return &Handlers{
		products: products,
		sales:    sales,
	}
}

// Product Handlers

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p product.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.products.Create(r.Context(), tenantID(r), middleware.GetUserID(r.Context()), &p)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []*product.Product
		err      error
	)
	switch {
	case r.URL.Query().Get("q") != "":
		products, err = h.products.Search(r.Context(), tenantID(r), r.URL.Query().Get("q"))
	case r.URL.Query().Get("category") != "":
		products, err = h.products.ListByCategory(r.Context(), tenantID(r), r.URL.Query().Get("category"))
	default:
		products, err = h.products.List(r.Context(), tenantID(r))
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetLowStockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.LowStock(r.Context(), tenantID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	p, err := h.products.Get(r.Context(), tenantID(r), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	var p product.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.products.Update(r.Context(), tenantID(r), middleware.GetUserID(r.Context()), id, &p)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	if err := h.products.Delete(r.Context(), tenantID(r), middleware.GetUserID(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (h *Handlers) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/products/"), "/stock")

	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	adj, err := h.products.AdjustStock(r.Context(), tenantID(r), middleware.GetUserID(r.Context()), id, req.Delta)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"product_id":              adj.ProductID,
		"old_quantity":            adj.OldQuantity,
		"new_quantity":            adj.NewQuantity,
		"crossed_alert_threshold": adj.CrossedAlertThreshold,
		"became_out_of_stock":     adj.BecameOutOfStock,
		"became_in_stock":         adj.BecameInStock,
	})
}

// Helpers

func tenantID(r *http.Request) string {
	return tenant.FromContextOrDefault(r.Context())
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case sale.IsNotFound(err) || errors.Is(err, user.ErrNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, product.ErrDuplicateSKU),
		errors.Is(err, sale.ErrDuplicateClientRef),
		errors.Is(err, sale.ErrDuplicateInvoice),
		errors.Is(err, user.ErrDuplicateEmail):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, product.ErrInsufficientStock):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, product.ErrInvalidPrice),
		errors.Is(err, product.ErrInvalidThreshold),
		errors.Is(err, sale.ErrNoItems),
		errors.Is(err, sale.ErrInvalidQuantity),
		errors.Is(err, sale.ErrInvalidUnitPrice),
		errors.Is(err, sale.ErrInvalidStatus):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

func extractPathParam(path, prefix string) string {
	param := strings.TrimPrefix(path, prefix)
	return strings.TrimSuffix(param, "/")
}
