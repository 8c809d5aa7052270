package sale

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("sale not found")
	ErrNoItems            = errors.New("sale must contain at least one item")
	ErrInvalidQuantity    = errors.New("item quantity must be positive")
	ErrInvalidUnitPrice   = errors.New("item unit price must not be negative")
	ErrInvalidStatus      = errors.New("invalid sale status")
	ErrDuplicateClientRef = errors.New("sale with this client reference already exists")
	ErrDuplicateInvoice   = errors.New("sale with this invoice number already exists")
)

// Status is the lifecycle state of a sale.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// ParseStatus validates a status string coming off the wire.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusCancelled, StatusRefunded:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// ConsumesStock reports whether a sale in this status holds deducted
// stock. Transitioning out of a consuming status into CANCELLED or
// REFUNDED returns the items to inventory.
func (s Status) ConsumesStock() bool {
	return s == StatusPending || s == StatusCompleted
}

// Item is one line of a sale, referencing exactly one product by id.
// Subtotal is recomputed from the other fields and never trusted as
// submitted.
type Item struct {
	ID        string `json:"id"`
	SaleID    string `json:"sale_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Discount  int64  `json:"discount"`
	Tax       int64  `json:"tax"`
	Subtotal  int64  `json:"subtotal"`
}

// ComputeSubtotal returns quantity x unit price - discount + tax.
func (i Item) ComputeSubtotal() int64 {
	return int64(i.Quantity)*i.UnitPrice - i.Discount + i.Tax
}

// Sale is a tenant-scoped transaction with an ordered collection of
// items. ClientReferenceID is set only for offline-origin sales and is
// unique per tenant; replaying the same reference is a no-op.
type Sale struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenant_id"`
	InvoiceNumber     string    `json:"invoice_number"`
	UserID            string    `json:"user_id"`
	Status            Status    `json:"status"`
	TotalAmount       int64     `json:"total_amount"`
	TaxAmount         int64     `json:"tax_amount"`
	DiscountAmount    int64     `json:"discount_amount"`
	PaymentMethod     string    `json:"payment_method"`
	ClientReferenceID string    `json:"client_reference_id,omitempty"`
	OfflineCreated    bool      `json:"offline_created"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Items             []Item    `json:"items"`
}

// LastUpdated implements reconcile.Timestamped for last-write-wins
// merging.
func (s Sale) LastUpdated() time.Time {
	return s.UpdatedAt
}

// StockMovement reports one product's quantity transition applied as
// part of a sale commit or reversal.
type StockMovement struct {
	ProductID      string
	Delta          int
	OldQuantity    int
	NewQuantity    int
	AlertThreshold int
}

// DailyReportRow aggregates sales for one calendar day.
type DailyReportRow struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
	Total int64  `json:"total"`
}

// Store is the tenant-scoped persistence contract for sales.
//
// Create must commit the sale, its items and the stock deductions for
// every item in a single atomic unit: either everything lands or
// nothing does. UpdateStatus likewise couples the status change with
// any stock restoration. FindByClientRef returns (nil, nil) when no
// sale carries the reference.
type Store interface {
	Create(ctx context.Context, s *Sale) ([]StockMovement, error)
	Save(ctx context.Context, s *Sale) error // upsert without stock effects, used by event replay
	GetByID(ctx context.Context, tenantID, id string) (*Sale, error)
	FindByClientRef(ctx context.Context, tenantID, clientRef string) (*Sale, error)
	List(ctx context.Context, tenantID string) ([]*Sale, error)
	ListByDateRange(ctx context.Context, tenantID string, from, to time.Time) ([]*Sale, error)
	ListByStatus(ctx context.Context, tenantID string, status Status) ([]*Sale, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status Status) (*Sale, []StockMovement, error)
	DailyReport(ctx context.Context, tenantID string, from, to time.Time) ([]DailyReportRow, error)
}
