package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/pos-backend/internal/domain/product"
)

// MemoryProductStore is an in-memory product store for tests and
// local development. Semantics match the PostgreSQL store, including
// the atomic conditional stock adjustment.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[string]*product.Product // tenantID + "/" + id
}

func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{
		products: make(map[string]*product.Product),
	}
}

func storeKey(tenantID, id string) string {
	return tenantID + "/" + id
}

func (ms *MemoryProductStore) Create(ctx context.Context, p *product.Product) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if p.SKU != "" {
		for _, existing := range ms.products {
			if existing.TenantID == p.TenantID && existing.Active && existing.SKU == p.SKU {
				return product.ErrDuplicateSKU
			}
		}
	}
	cp := *p
	ms.products[storeKey(p.TenantID, p.ID)] = &cp
	return nil
}

func (ms *MemoryProductStore) Update(ctx context.Context, p *product.Product) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	existing, ok := ms.products[storeKey(p.TenantID, p.ID)]
	if !ok || !existing.Active {
		return product.ErrNotFound
	}
	cp := *p
	cp.StockQuantity = existing.StockQuantity
	ms.products[storeKey(p.TenantID, p.ID)] = &cp
	return nil
}

func (ms *MemoryProductStore) Save(ctx context.Context, p *product.Product) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	cp := *p
	ms.products[storeKey(p.TenantID, p.ID)] = &cp
	return nil
}

func (ms *MemoryProductStore) Delete(ctx context.Context, tenantID, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	existing, ok := ms.products[storeKey(tenantID, id)]
	if !ok || !existing.Active {
		return product.ErrNotFound
	}
	existing.Active = false
	existing.UpdatedAt = time.Now()
	return nil
}

func (ms *MemoryProductStore) GetByID(ctx context.Context, tenantID, id string) (*product.Product, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	existing, ok := ms.products[storeKey(tenantID, id)]
	if !ok || !existing.Active {
		return nil, product.ErrNotFound
	}
	cp := *existing
	return &cp, nil
}

func (ms *MemoryProductStore) GetBySKU(ctx context.Context, tenantID, sku string) (*product.Product, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, existing := range ms.products {
		if existing.TenantID == tenantID && existing.Active && existing.SKU == sku {
			cp := *existing
			return &cp, nil
		}
	}
	return nil, product.ErrNotFound
}

func (ms *MemoryProductStore) List(ctx context.Context, tenantID string) ([]*product.Product, error) {
	return ms.filter(tenantID, func(p *product.Product) bool { return true }), nil
}

func (ms *MemoryProductStore) ListByCategory(ctx context.Context, tenantID, category string) ([]*product.Product, error) {
	return ms.filter(tenantID, func(p *product.Product) bool {
		return p.Category == category
	}), nil
}

func (ms *MemoryProductStore) Search(ctx context.Context, tenantID, query string) ([]*product.Product, error) {
	q := strings.ToLower(query)
	return ms.filter(tenantID, func(p *product.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.SKU), q) ||
			strings.Contains(strings.ToLower(p.Barcode), q)
	}), nil
}

func (ms *MemoryProductStore) LowStock(ctx context.Context, tenantID string) ([]*product.Product, error) {
	return ms.filter(tenantID, func(p *product.Product) bool {
		return p.LowStock()
	}), nil
}

func (ms *MemoryProductStore) AdjustStock(ctx context.Context, tenantID, id string, delta int) (product.StockLevel, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.adjustStockLocked(tenantID, id, delta)
}

// adjustStockLocked requires ms.mu to be held. The sale store uses it
// to couple stock deltas with a sale commit.
func (ms *MemoryProductStore) adjustStockLocked(tenantID, id string, delta int) (product.StockLevel, error) {
	existing, ok := ms.products[storeKey(tenantID, id)]
	if !ok || !existing.Active {
		return product.StockLevel{}, product.ErrNotFound
	}
	if existing.StockQuantity+delta < 0 {
		return product.StockLevel{}, product.ErrInsufficientStock
	}

	old := existing.StockQuantity
	existing.StockQuantity += delta
	existing.UpdatedAt = time.Now()
	return product.StockLevel{
		OldQuantity:    old,
		NewQuantity:    existing.StockQuantity,
		AlertThreshold: existing.AlertThreshold,
	}, nil
}

func (ms *MemoryProductStore) filter(tenantID string, keep func(*product.Product) bool) []*product.Product {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []*product.Product
	for _, p := range ms.products {
		if p.TenantID != tenantID || !p.Active || !keep(p) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
