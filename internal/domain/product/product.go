package product

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateSKU      = errors.New("product with this SKU already exists")
	ErrInvalidPrice      = errors.New("product price must not be negative")
	ErrInvalidThreshold  = errors.New("alert threshold must not be negative")
)

// DefaultAlertThreshold is applied when a product is created without
// an explicit threshold.
const DefaultAlertThreshold = 5

// Product is a tenant-scoped catalog entry. Price is in minor currency
// units. StockQuantity is owned by the adjustment ledger and never
// written through a regular update.
type Product struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Price          int64     `json:"price"`
	StockQuantity  int       `json:"stock_quantity"`
	AlertThreshold int       `json:"alert_threshold"`
	SKU            string    `json:"sku,omitempty"`
	Barcode        string    `json:"barcode,omitempty"`
	Category       string    `json:"category,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LowStock reports whether the quantity is at or below the alert
// threshold.
func (p Product) LowStock() bool {
	return p.StockQuantity <= p.AlertThreshold
}

// OutOfStock reports whether the product has no stock left.
func (p Product) OutOfStock() bool {
	return p.StockQuantity <= 0
}

// LastUpdated implements reconcile.Timestamped for last-write-wins
// merging.
func (p Product) LastUpdated() time.Time {
	return p.UpdatedAt
}

// StockLevel is the quantity transition reported by an atomic stock
// adjustment.
type StockLevel struct {
	OldQuantity    int
	NewQuantity    int
	AlertThreshold int
}

// Adjustment is one entry of the stock ledger: the transition plus the
// threshold signals it produced.
type Adjustment struct {
	ProductID             string
	OldQuantity           int
	NewQuantity           int
	CrossedAlertThreshold bool
	BecameOutOfStock      bool
	BecameInStock         bool
}

// NewAdjustment derives threshold signals from a quantity transition.
// Each signal fires only on the crossing itself, not while the level
// stays below the line.
func NewAdjustment(productID string, level StockLevel) Adjustment {
	return Adjustment{
		ProductID:             productID,
		OldQuantity:           level.OldQuantity,
		NewQuantity:           level.NewQuantity,
		CrossedAlertThreshold: level.OldQuantity > level.AlertThreshold && level.NewQuantity <= level.AlertThreshold,
		BecameOutOfStock:      level.OldQuantity > 0 && level.NewQuantity == 0,
		BecameInStock:         level.OldQuantity <= 0 && level.NewQuantity > 0,
	}
}

// Store is the tenant-scoped persistence contract for products.
//
// AdjustStock must apply the delta as a single atomic conditional
// update: concurrent adjustments may never interleave a stale read
// with a write, and a delta that would drive the quantity negative
// returns ErrInsufficientStock without changing state. Save upserts
// without validation and is used by event replay. GetBySKU returns
// ErrNotFound when no product carries the SKU.
type Store interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Save(ctx context.Context, p *Product) error
	Delete(ctx context.Context, tenantID, id string) error
	GetByID(ctx context.Context, tenantID, id string) (*Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (*Product, error)
	List(ctx context.Context, tenantID string) ([]*Product, error)
	ListByCategory(ctx context.Context, tenantID, category string) ([]*Product, error)
	Search(ctx context.Context, tenantID, query string) ([]*Product, error)
	LowStock(ctx context.Context, tenantID string) ([]*Product, error)
	AdjustStock(ctx context.Context, tenantID, id string, delta int) (StockLevel, error)
}
