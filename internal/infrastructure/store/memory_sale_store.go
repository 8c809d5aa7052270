package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/pos-backend/internal/domain/product"
	"github.com/example/pos-backend/internal/domain/sale"
)

// MemorySaleStore is an in-memory sale store for tests and local
// development. It shares the product store so that stock deltas commit
// together with the sale, mirroring the PostgreSQL transaction.
type MemorySaleStore struct {
	mu       sync.RWMutex
	sales    map[string]*sale.Sale // tenantID + "/" + id
	products *MemoryProductStore
}

func NewMemorySaleStore(products *MemoryProductStore) *MemorySaleStore {
	return &MemorySaleStore{
		sales:    make(map[string]*sale.Sale),
		products: products,
	}
}

func (ms *MemorySaleStore) Create(ctx context.Context, s *sale.Sale) ([]sale.StockMovement, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, existing := range ms.sales {
		if existing.TenantID != s.TenantID {
			continue
		}
		if s.ClientReferenceID != "" && existing.ClientReferenceID == s.ClientReferenceID {
			return nil, sale.ErrDuplicateClientRef
		}
		if existing.InvoiceNumber == s.InvoiceNumber {
			return nil, sale.ErrDuplicateInvoice
		}
	}

	var movements []sale.StockMovement
	if s.Status.ConsumesStock() {
		var err error
		movements, err = ms.applyDeltas(s.TenantID, s.Items, -1)
		if err != nil {
			return nil, err
		}
	}

	cp := cloneSale(s)
	ms.sales[storeKey(s.TenantID, s.ID)] = cp
	return movements, nil
}

func (ms *MemorySaleStore) Save(ctx context.Context, s *sale.Sale) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.sales[storeKey(s.TenantID, s.ID)] = cloneSale(s)
	return nil
}

func (ms *MemorySaleStore) GetByID(ctx context.Context, tenantID, id string) (*sale.Sale, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	existing, ok := ms.sales[storeKey(tenantID, id)]
	if !ok {
		return nil, sale.ErrNotFound
	}
	return cloneSale(existing), nil
}

func (ms *MemorySaleStore) FindByClientRef(ctx context.Context, tenantID, clientRef string) (*sale.Sale, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, existing := range ms.sales {
		if existing.TenantID == tenantID && existing.ClientReferenceID == clientRef {
			return cloneSale(existing), nil
		}
	}
	return nil, nil
}

func (ms *MemorySaleStore) List(ctx context.Context, tenantID string) ([]*sale.Sale, error) {
	return ms.filter(tenantID, func(s *sale.Sale) bool { return true }), nil
}

func (ms *MemorySaleStore) ListByDateRange(ctx context.Context, tenantID string, from, to time.Time) ([]*sale.Sale, error) {
	return ms.filter(tenantID, func(s *sale.Sale) bool {
		return !s.CreatedAt.Before(from) && s.CreatedAt.Before(to)
	}), nil
}

func (ms *MemorySaleStore) ListByStatus(ctx context.Context, tenantID string, status sale.Status) ([]*sale.Sale, error) {
	return ms.filter(tenantID, func(s *sale.Sale) bool {
		return s.Status == status
	}), nil
}

func (ms *MemorySaleStore) UpdateStatus(ctx context.Context, tenantID, id string, status sale.Status) (*sale.Sale, []sale.StockMovement, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	existing, ok := ms.sales[storeKey(tenantID, id)]
	if !ok {
		return nil, nil, sale.ErrNotFound
	}

	old := existing.Status
	var movements []sale.StockMovement
	var err error
	switch {
	case old.ConsumesStock() && !status.ConsumesStock():
		movements, err = ms.applyDeltas(tenantID, existing.Items, +1)
	case !old.ConsumesStock() && status.ConsumesStock():
		movements, err = ms.applyDeltas(tenantID, existing.Items, -1)
	}
	if err != nil {
		return nil, nil, err
	}

	existing.Status = status
	existing.UpdatedAt = time.Now()
	return cloneSale(existing), movements, nil
}

func (ms *MemorySaleStore) DailyReport(ctx context.Context, tenantID string, from, to time.Time) ([]sale.DailyReportRow, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	byDay := make(map[string]*sale.DailyReportRow)
	for _, s := range ms.sales {
		if s.TenantID != tenantID || s.Status != sale.StatusCompleted {
			continue
		}
		if s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
			continue
		}
		day := s.CreatedAt.Format("2006-01-02")
		row, ok := byDay[day]
		if !ok {
			row = &sale.DailyReportRow{Date: day}
			byDay[day] = row
		}
		row.Count++
		row.Total += s.TotalAmount
	}

	report := make([]sale.DailyReportRow, 0, len(byDay))
	for _, row := range byDay {
		report = append(report, *row)
	}
	sort.Slice(report, func(i, j int) bool { return report[i].Date < report[j].Date })
	return report, nil
}

// applyDeltas adjusts stock for every item all-or-nothing: the whole
// batch is validated under the product store lock before any quantity
// changes.
func (ms *MemorySaleStore) applyDeltas(tenantID string, items []sale.Item, sign int) ([]sale.StockMovement, error) {
	ms.products.mu.Lock()
	defer ms.products.mu.Unlock()

	for _, it := range items {
		p, ok := ms.products.products[storeKey(tenantID, it.ProductID)]
		if !ok || !p.Active {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, product.ErrNotFound)
		}
		if p.StockQuantity+sign*it.Quantity < 0 {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, product.ErrInsufficientStock)
		}
	}

	movements := make([]sale.StockMovement, 0, len(items))
	for _, it := range items {
		delta := sign * it.Quantity
		level, err := ms.products.adjustStockLocked(tenantID, it.ProductID, delta)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, err)
		}
		movements = append(movements, sale.StockMovement{
			ProductID:      it.ProductID,
			Delta:          delta,
			OldQuantity:    level.OldQuantity,
			NewQuantity:    level.NewQuantity,
			AlertThreshold: level.AlertThreshold,
		})
	}
	return movements, nil
}

func (ms *MemorySaleStore) filter(tenantID string, keep func(*sale.Sale) bool) []*sale.Sale {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []*sale.Sale
	for _, s := range ms.sales {
		if s.TenantID != tenantID || !keep(s) {
			continue
		}
		out = append(out, cloneSale(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func cloneSale(s *sale.Sale) *sale.Sale {
	cp := *s
	cp.Items = make([]sale.Item, len(s.Items))
	copy(cp.Items, s.Items)
	return &cp
}
