package sale

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/pos-backend/internal/domain/product"
	"github.com/example/pos-backend/internal/event"
	"github.com/google/uuid"
)

// Service implements sale operations, including the offline batch
// sync path. Single-record operations propagate errors and abort
// atomically; the batch path isolates per-record failures.
type Service struct {
	sales     Store
	products  *product.Service
	publisher event.Publisher
}

func NewService(sales Store, products *product.Service, publisher event.Publisher) *Service {
	return &Service{sales: sales, products: products, publisher: publisher}
}

// SyncResult partitions a batch by outcome so the offline client can
// report per-record status.
type SyncResult struct {
	Processed []*Sale         `json:"processed"`
	Skipped   []SkippedRecord `json:"skipped"`
	Failed    []FailedRecord  `json:"failed"`
}

// SkippedRecord identifies a batch record suppressed as a duplicate.
type SkippedRecord struct {
	Index             int    `json:"index"`
	ClientReferenceID string `json:"client_reference_id,omitempty"`
	Reason            string `json:"reason"`
}

// FailedRecord identifies a batch record that could not be processed.
type FailedRecord struct {
	Index             int    `json:"index"`
	ClientReferenceID string `json:"client_reference_id,omitempty"`
	Error             string `json:"error"`
}

// Create processes a single sale: defaults, validation, product
// resolution, atomic commit of sale+items+stock, then best-effort
// event publication.
func (s *Service) Create(ctx context.Context, tenantID, userID string, in *Sale) (*Sale, error) {
	if err := s.prepare(ctx, tenantID, userID, in); err != nil {
		return nil, err
	}

	if in.ClientReferenceID != "" {
		existing, err := s.sales.FindByClientRef(ctx, tenantID, in.ClientReferenceID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrDuplicateClientRef
		}
	}

	movements, err := s.sales.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.publishSale(ctx, tenantID, userID, event.KindSale, event.ChannelSales, EventSaleCreated, in)
	s.publishMovements(ctx, tenantID, userID, movements)
	return in, nil
}

// SyncOfflineSales replays a batch of offline-created sales in input
// order. Duplicates (by client reference id) are skipped, failures are
// collected, and neither aborts the batch. Earlier successes persist
// regardless of later outcomes.
func (s *Service) SyncOfflineSales(ctx context.Context, tenantID, userID string, records []*Sale) SyncResult {
	result := SyncResult{
		Processed: make([]*Sale, 0, len(records)),
	}

	for i, rec := range records {
		if rec == nil {
			// A null array element decodes to a nil record; mark it
			// failed like any other bad record instead of panicking.
			result.Failed = append(result.Failed, FailedRecord{
				Index: i,
				Error: "missing sale record",
			})
			continue
		}

		dup, err := s.isDuplicate(ctx, tenantID, rec.ClientReferenceID)
		if err != nil {
			log.Printf("[Sync] duplicate check failed for record %d: %v", i, err)
			result.Failed = append(result.Failed, FailedRecord{
				Index:             i,
				ClientReferenceID: rec.ClientReferenceID,
				Error:             err.Error(),
			})
			continue
		}
		if dup {
			result.Skipped = append(result.Skipped, SkippedRecord{
				Index:             i,
				ClientReferenceID: rec.ClientReferenceID,
				Reason:            "duplicate client reference",
			})
			continue
		}

		rec.OfflineCreated = true
		if err := s.prepare(ctx, tenantID, userID, rec); err != nil {
			result.Failed = append(result.Failed, FailedRecord{
				Index:             i,
				ClientReferenceID: rec.ClientReferenceID,
				Error:             err.Error(),
			})
			continue
		}

		movements, err := s.sales.Create(ctx, rec)
		if err != nil {
			log.Printf("[Sync] failed to process offline sale %d: %v", i, err)
			result.Failed = append(result.Failed, FailedRecord{
				Index:             i,
				ClientReferenceID: rec.ClientReferenceID,
				Error:             err.Error(),
			})
			continue
		}

		result.Processed = append(result.Processed, rec)
		s.publishSale(ctx, tenantID, userID, event.KindSale, event.ChannelSales, EventSaleCreated, rec)
		s.publishSale(ctx, tenantID, userID, event.KindSync, event.ChannelSync, EventSaleSynced, rec)
		s.publishMovements(ctx, tenantID, userID, movements)
	}

	return result
}

// isDuplicate reports whether a sale already exists for the client
// reference id. An absent reference is never a duplicate.
func (s *Service) isDuplicate(ctx context.Context, tenantID, clientRef string) (bool, error) {
	if clientRef == "" {
		return false, nil
	}
	existing, err := s.sales.FindByClientRef(ctx, tenantID, clientRef)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// prepare applies defaults, validates items and resolves every
// referenced product before anything is committed.
func (s *Service) prepare(ctx context.Context, tenantID, userID string, in *Sale) error {
	now := time.Now()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = in.CreatedAt
	}
	if in.Status == "" {
		in.Status = StatusCompleted
	} else if _, err := ParseStatus(string(in.Status)); err != nil {
		return err
	}
	if len(in.Items) == 0 {
		return ErrNoItems
	}

	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.InvoiceNumber == "" {
		in.InvoiceNumber = newInvoiceNumber()
	}
	in.TenantID = tenantID
	in.UserID = userID

	var total, tax, discount int64
	for idx := range in.Items {
		item := &in.Items[idx]
		if item.Quantity < 1 {
			return fmt.Errorf("item %d: %w", idx, ErrInvalidQuantity)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("item %d: %w", idx, ErrInvalidUnitPrice)
		}

		p, err := s.products.Get(ctx, tenantID, item.ProductID)
		if err != nil {
			return fmt.Errorf("item %d (product %s): %w", idx, item.ProductID, err)
		}
		if item.UnitPrice == 0 {
			item.UnitPrice = p.Price
		}

		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.SaleID = in.ID
		item.Subtotal = item.ComputeSubtotal()

		total += item.Subtotal
		tax += item.Tax
		discount += item.Discount
	}

	// Totals are derived from the items, never trusted as submitted.
	in.TotalAmount = total
	in.TaxAmount = tax
	in.DiscountAmount = discount
	return nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*Sale, error) {
	return s.sales.GetByID(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID string) ([]*Sale, error) {
	return s.sales.List(ctx, tenantID)
}

func (s *Service) ListByDateRange(ctx context.Context, tenantID string, from, to time.Time) ([]*Sale, error) {
	return s.sales.ListByDateRange(ctx, tenantID, from, to)
}

func (s *Service) ListByStatus(ctx context.Context, tenantID, status string) ([]*Sale, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.sales.ListByStatus(ctx, tenantID, st)
}

// UpdateStatus transitions a sale's lifecycle state. Moving out of a
// stock-consuming status into CANCELLED or REFUNDED returns the items
// to inventory within the same atomic unit as the status change.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, userID, id, status string) (*Sale, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	updated, movements, err := s.sales.UpdateStatus(ctx, tenantID, id, st)
	if err != nil {
		return nil, err
	}

	switch st {
	case StatusCancelled:
		s.publishSale(ctx, tenantID, userID, event.KindSale, event.ChannelSales, EventSaleCancelled, updated)
	case StatusRefunded:
		s.publishSale(ctx, tenantID, userID, event.KindSale, event.ChannelSales, EventSaleRefunded, updated)
	case StatusCompleted:
		s.publishSale(ctx, tenantID, userID, event.KindSale, event.ChannelSales, EventSaleUpdated, updated)
		s.publishSale(ctx, tenantID, userID, event.KindPayment, event.ChannelPayments, EventPaymentCompleted, updated)
	default:
		s.publishSale(ctx, tenantID, userID, event.KindSale, event.ChannelSales, EventSaleUpdated, updated)
	}
	s.publishMovements(ctx, tenantID, userID, movements)
	return updated, nil
}

func (s *Service) DailyReport(ctx context.Context, tenantID string, from, to time.Time) ([]DailyReportRow, error) {
	return s.sales.DailyReport(ctx, tenantID, from, to)
}

func (s *Service) publishSale(ctx context.Context, tenantID, userID string, kind event.Kind, channel, eventType string, sl *Sale) {
	if s.publisher == nil {
		return
	}
	env, err := event.New(tenantID, userID, kind, eventType, SaleChange{Sale: *sl})
	if err != nil {
		log.Printf("[Sales] failed to build %s event: %v", eventType, err)
		return
	}
	if err := s.publisher.Publish(ctx, channel, sl.ID, env); err != nil {
		log.Printf("[Sales] failed to publish %s event: %v", eventType, err)
	}
}

func (s *Service) publishMovements(ctx context.Context, tenantID, userID string, movements []StockMovement) {
	for _, m := range movements {
		adj := product.NewAdjustment(m.ProductID, product.StockLevel{
			OldQuantity:    m.OldQuantity,
			NewQuantity:    m.NewQuantity,
			AlertThreshold: m.AlertThreshold,
		})
		s.products.PublishAdjustment(ctx, tenantID, userID, m.Delta, adj)
	}
}

func newInvoiceNumber() string {
	return "INV-" + strings.ToUpper(uuid.New().String()[:8])
}

// IsNotFound reports whether the error is a missing-entity error from
// either the sale or product side.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, product.ErrNotFound)
}
