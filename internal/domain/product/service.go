package product

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/example/pos-backend/internal/event"
	"github.com/google/uuid"
)

// Service implements product catalog operations and the stock
// adjustment ledger. State changes are committed first; events are a
// best-effort mirror and never roll anything back.
type Service struct {
	store     Store
	publisher event.Publisher
}

func NewService(store Store, publisher event.Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

func (s *Service) Create(ctx context.Context, tenantID, userID string, p *Product) (*Product, error) {
	if p.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if p.AlertThreshold < 0 {
		return nil, ErrInvalidThreshold
	}
	if p.AlertThreshold == 0 {
		p.AlertThreshold = DefaultAlertThreshold
	}
	if p.StockQuantity < 0 {
		p.StockQuantity = 0
	}

	if p.SKU != "" {
		existing, err := s.store.GetBySKU(ctx, tenantID, p.SKU)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, ErrDuplicateSKU
		}
	}

	now := time.Now()
	p.ID = uuid.New().String()
	p.TenantID = tenantID
	p.Active = true
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, tenantID, userID, EventProductCreated, p.ID, InventoryChange{Product: *p})
	return p, nil
}

func (s *Service) Update(ctx context.Context, tenantID, userID, id string, in *Product) (*Product, error) {
	existing, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if in.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if in.SKU != "" && in.SKU != existing.SKU {
		dup, err := s.store.GetBySKU(ctx, tenantID, in.SKU)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if dup != nil {
			return nil, ErrDuplicateSKU
		}
		existing.SKU = in.SKU
	}

	// Stock is owned by the ledger; a regular update never touches it.
	existing.Name = in.Name
	existing.Description = in.Description
	existing.Price = in.Price
	existing.Barcode = in.Barcode
	existing.Category = in.Category
	if in.AlertThreshold > 0 {
		existing.AlertThreshold = in.AlertThreshold
	}
	existing.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.publish(ctx, tenantID, userID, EventProductUpdated, existing.ID, InventoryChange{Product: *existing})
	return existing, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, userID, id string) error {
	existing, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.publish(ctx, tenantID, userID, EventProductDeleted, id, InventoryChange{Product: *existing})
	return nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*Product, error) {
	return s.store.GetByID(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID string) ([]*Product, error) {
	return s.store.List(ctx, tenantID)
}

func (s *Service) ListByCategory(ctx context.Context, tenantID, category string) ([]*Product, error) {
	return s.store.ListByCategory(ctx, tenantID, category)
}

func (s *Service) Search(ctx context.Context, tenantID, query string) ([]*Product, error) {
	return s.store.Search(ctx, tenantID, strings.TrimSpace(query))
}

func (s *Service) LowStock(ctx context.Context, tenantID string) ([]*Product, error) {
	return s.store.LowStock(ctx, tenantID)
}

// AdjustStock applies a signed quantity delta to a product's stock.
// Negative deltas represent consumption, positive deltas restock or
// reversal. The new quantity is persisted atomically; the returned
// Adjustment reports the derived threshold signals.
func (s *Service) AdjustStock(ctx context.Context, tenantID, userID, id string, delta int) (Adjustment, error) {
	level, err := s.store.AdjustStock(ctx, tenantID, id, delta)
	if err != nil {
		return Adjustment{}, err
	}

	adj := NewAdjustment(id, level)
	s.PublishAdjustment(ctx, tenantID, userID, delta, adj)
	return adj, nil
}

// PublishAdjustment mirrors a committed stock transition onto the
// inventory channel: the delta event itself plus one event per
// threshold signal. Also used by the sale service after a sale commit.
func (s *Service) PublishAdjustment(ctx context.Context, tenantID, userID string, delta int, adj Adjustment) {
	snapshot, err := s.store.GetByID(ctx, tenantID, adj.ProductID)
	if err != nil {
		log.Printf("[Inventory] snapshot for event failed: %v", err)
		return
	}

	change := InventoryChange{Product: *snapshot, QuantityChange: delta}
	if delta >= 0 {
		s.publish(ctx, tenantID, userID, EventStockIncreased, adj.ProductID, change)
	} else {
		s.publish(ctx, tenantID, userID, EventStockDecreased, adj.ProductID, change)
	}
	if adj.CrossedAlertThreshold {
		s.publish(ctx, tenantID, userID, EventStockAlert, adj.ProductID, change)
	}
	if adj.BecameOutOfStock {
		s.publish(ctx, tenantID, userID, EventOutOfStock, adj.ProductID, change)
	}
	if adj.BecameInStock {
		s.publish(ctx, tenantID, userID, EventBackInStock, adj.ProductID, change)
	}
}

func (s *Service) publish(ctx context.Context, tenantID, userID, eventType, key string, payload any) {
	if s.publisher == nil {
		return
	}
	env, err := event.New(tenantID, userID, event.KindInventory, eventType, payload)
	if err != nil {
		log.Printf("[Inventory] failed to build %s event: %v", eventType, err)
		return
	}
	if err := s.publisher.Publish(ctx, event.ChannelInventory, key, env); err != nil {
		log.Printf("[Inventory] failed to publish %s event: %v", eventType, err)
	}
}
