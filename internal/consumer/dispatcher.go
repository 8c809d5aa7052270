package consumer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/pos-backend/internal/domain/product"
	"github.com/example/pos-backend/internal/domain/sale"
	"github.com/example/pos-backend/internal/event"
	"github.com/example/pos-backend/internal/reconcile"
)

// DedupStore suppresses redelivered events. MarkProcessed returns
// false when the event id was already claimed.
type DedupStore interface {
	MarkProcessed(ctx context.Context, tenantID, eventID string) (bool, error)
}

// Dispatcher mirrors published events into a replica of the sale and
// product state. Every apply is idempotent so redelivery is harmless,
// and SYNCED events merge by last write wins instead of overwriting
// blindly.
type Dispatcher struct {
	sales    sale.Store
	products product.Store
	dedup    DedupStore // optional
}

func NewDispatcher(sales sale.Store, products product.Store, dedup DedupStore) *Dispatcher {
	return &Dispatcher{sales: sales, products: products, dedup: dedup}
}

// Dispatch routes one envelope by kind. Unknown kinds and types are
// logged and dropped rather than failing the stream.
func (d *Dispatcher) Dispatch(ctx context.Context, env event.Envelope) error {
	if d.dedup != nil {
		first, err := d.dedup.MarkProcessed(ctx, env.TenantID, env.ID)
		if err != nil {
			// Process anyway: at-least-once beats losing the event.
			log.Printf("[Dispatch] dedup check failed for event %s: %v", env.ID, err)
		} else if !first {
			log.Printf("[Dispatch] skipping already processed event %s (%s)", env.ID, env.Type)
			return nil
		}
	}

	switch env.Kind {
	case event.KindSale:
		return d.applySale(ctx, env)
	case event.KindInventory:
		return d.applyInventory(ctx, env)
	case event.KindPayment:
		return d.applyPayment(ctx, env)
	case event.KindSync:
		return d.applySync(ctx, env)
	default:
		log.Printf("[Dispatch] unknown event kind %q (type %s)", env.Kind, env.Type)
		return nil
	}
}

func (d *Dispatcher) applySale(ctx context.Context, env event.Envelope) error {
	var change sale.SaleChange
	if err := env.Decode(&change); err != nil {
		return fmt.Errorf("decode %s: %w", env.Type, err)
	}

	switch env.Type {
	case sale.EventSaleCreated, sale.EventSaleUpdated, sale.EventSaleCancelled, sale.EventSaleRefunded:
		// The payload is a full post-change snapshot, so a plain upsert
		// is idempotent under redelivery.
		return d.sales.Save(ctx, &change.Sale)
	default:
		log.Printf("[Dispatch] unknown sale event type %q", env.Type)
		return nil
	}
}

func (d *Dispatcher) applyPayment(ctx context.Context, env event.Envelope) error {
	var change sale.SaleChange
	if err := env.Decode(&change); err != nil {
		return fmt.Errorf("decode %s: %w", env.Type, err)
	}

	switch env.Type {
	case sale.EventPaymentCompleted, sale.EventPaymentFailed:
		log.Printf("[Dispatch] payment %s for sale %s (%s)", env.Type, change.Sale.ID, change.Sale.InvoiceNumber)
		return d.sales.Save(ctx, &change.Sale)
	default:
		log.Printf("[Dispatch] unknown payment event type %q", env.Type)
		return nil
	}
}

// applySync reconciles a SYNCED snapshot against local state by last
// write wins: an older incoming copy never clobbers newer local edits.
func (d *Dispatcher) applySync(ctx context.Context, env event.Envelope) error {
	var change sale.SaleChange
	if err := env.Decode(&change); err != nil {
		return fmt.Errorf("decode %s: %w", env.Type, err)
	}

	switch env.Type {
	case sale.EventSaleSynced:
		existing, err := d.sales.GetByID(ctx, env.TenantID, change.Sale.ID)
		if err != nil && !errors.Is(err, sale.ErrNotFound) {
			return err
		}
		decision := reconcile.LastWriteWins(existing, change.Sale)
		if !decision.ApplyIncoming {
			log.Printf("[Dispatch] keeping local copy of sale %s (local is newer)", change.Sale.ID)
			return nil
		}
		return d.sales.Save(ctx, &decision.Merged)
	default:
		log.Printf("[Dispatch] unknown sync event type %q", env.Type)
		return nil
	}
}

func (d *Dispatcher) applyInventory(ctx context.Context, env event.Envelope) error {
	var change product.InventoryChange
	if err := env.Decode(&change); err != nil {
		return fmt.Errorf("decode %s: %w", env.Type, err)
	}
	p := change.Product

	switch env.Type {
	case product.EventProductCreated, product.EventProductUpdated:
		return d.products.Save(ctx, &p)

	case product.EventProductSynced:
		existing, err := d.products.GetByID(ctx, env.TenantID, p.ID)
		if err != nil && !errors.Is(err, product.ErrNotFound) {
			return err
		}
		decision := reconcile.LastWriteWins(existing, p)
		if !decision.ApplyIncoming {
			log.Printf("[Dispatch] keeping local copy of product %s (local is newer)", p.ID)
			return nil
		}
		return d.products.Save(ctx, &decision.Merged)

	case product.EventProductDeleted:
		err := d.products.Delete(ctx, env.TenantID, p.ID)
		if errors.Is(err, product.ErrNotFound) {
			return nil
		}
		return err

	case product.EventStockIncreased, product.EventStockDecreased:
		return d.replayStockDelta(ctx, env.TenantID, change)

	case product.EventStockAlert, product.EventOutOfStock, product.EventBackInStock:
		// Threshold signals carry no state of their own.
		log.Printf("[Dispatch] %s for product %s (stock %d)", env.Type, p.ID, p.StockQuantity)
		return nil

	default:
		log.Printf("[Dispatch] unknown inventory event type %q", env.Type)
		return nil
	}
}

// replayStockDelta re-applies a quantity delta on the replica. A delta
// that would drive the replica negative clamps to zero instead of
// failing, since the origin already validated the real level.
func (d *Dispatcher) replayStockDelta(ctx context.Context, tenantID string, change product.InventoryChange) error {
	p := change.Product
	_, err := d.products.AdjustStock(ctx, tenantID, p.ID, change.QuantityChange)
	if err == nil {
		return nil
	}
	if errors.Is(err, product.ErrNotFound) {
		// First sight of this product: adopt the snapshot wholesale.
		return d.products.Save(ctx, &p)
	}
	if errors.Is(err, product.ErrInsufficientStock) {
		existing, getErr := d.products.GetByID(ctx, tenantID, p.ID)
		if getErr != nil {
			return getErr
		}
		log.Printf("[Dispatch] clamping stock for product %s to zero (was %d, delta %d)",
			p.ID, existing.StockQuantity, change.QuantityChange)
		existing.StockQuantity = 0
		existing.UpdatedAt = change.Product.UpdatedAt
		return d.products.Save(ctx, existing)
	}
	return err
}
