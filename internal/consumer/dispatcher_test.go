package consumer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pos-backend/internal/consumer"
	"github.com/example/pos-backend/internal/domain/product"
	"github.com/example/pos-backend/internal/domain/sale"
	"github.com/example/pos-backend/internal/event"
	"github.com/example/pos-backend/internal/infrastructure/store"
)

// memoryDedup is an in-memory stand-in for the DynamoDB dedup store.
type memoryDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemoryDedup() *memoryDedup {
	return &memoryDedup{seen: make(map[string]bool)}
}

func (d *memoryDedup) MarkProcessed(ctx context.Context, tenantID, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[eventID] {
		return false, nil
	}
	d.seen[eventID] = true
	return true, nil
}

type dispatcherFixture struct {
	dispatcher *consumer.Dispatcher
	sales      *store.MemorySaleStore
	products   *store.MemoryProductStore
}

func newDispatcherFixture(dedup consumer.DedupStore) *dispatcherFixture {
	products := store.NewMemoryProductStore()
	sales := store.NewMemorySaleStore(products)
	return &dispatcherFixture{
		dispatcher: consumer.NewDispatcher(sales, products, dedup),
		sales:      sales,
		products:   products,
	}
}

func mustEnvelope(t *testing.T, kind event.Kind, eventType string, payload any) event.Envelope {
	t.Helper()
	env, err := event.New("t1", "user-1", kind, eventType, payload)
	require.NoError(t, err)
	return env
}

func testSale(id string, updatedAt time.Time, status sale.Status) sale.Sale {
	return sale.Sale{
		ID:            id,
		TenantID:      "t1",
		InvoiceNumber: "INV-" + id,
		Status:        status,
		TotalAmount:   1200,
		CreatedAt:     updatedAt.Add(-time.Hour),
		UpdatedAt:     updatedAt,
		Items: []sale.Item{
			{ID: "item-" + id, SaleID: id, ProductID: "prod-1", Quantity: 1, UnitPrice: 1200, Subtotal: 1200},
		},
	}
}

func testProduct(id string, stock int, updatedAt time.Time) product.Product {
	return product.Product{
		ID:             id,
		TenantID:       "t1",
		Name:           "Beans",
		Price:          1200,
		StockQuantity:  stock,
		AlertThreshold: 5,
		Active:         true,
		CreatedAt:      updatedAt.Add(-time.Hour),
		UpdatedAt:      updatedAt,
	}
}

// ============================================
// Sale Event Tests
// ============================================

func TestDispatcher_SaleCreated_UpsertIsIdempotent(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()

	s := testSale("sale-1", time.Now(), sale.StatusCompleted)
	env := mustEnvelope(t, event.KindSale, sale.EventSaleCreated, sale.SaleChange{Sale: s})

	require.NoError(t, f.dispatcher.Dispatch(ctx, env))
	// Redelivery of the same envelope changes nothing.
	require.NoError(t, f.dispatcher.Dispatch(ctx, env))

	got, err := f.sales.GetByID(ctx, "t1", "sale-1")
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCompleted, got.Status)
	assert.Len(t, got.Items, 1)

	all, err := f.sales.List(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDispatcher_SaleCancelled_UpdatesStatus(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()

	now := time.Now()
	created := mustEnvelope(t, event.KindSale, sale.EventSaleCreated,
		sale.SaleChange{Sale: testSale("sale-1", now, sale.StatusCompleted)})
	cancelled := mustEnvelope(t, event.KindSale, sale.EventSaleCancelled,
		sale.SaleChange{Sale: testSale("sale-1", now.Add(time.Minute), sale.StatusCancelled)})

	require.NoError(t, f.dispatcher.Dispatch(ctx, created))
	require.NoError(t, f.dispatcher.Dispatch(ctx, cancelled))

	got, err := f.sales.GetByID(ctx, "t1", "sale-1")
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCancelled, got.Status)
}

// ============================================
// Sync Reconciliation Tests
// ============================================

func TestDispatcher_SaleSynced_OlderIncomingKeepsLocal(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()

	now := time.Now()
	local := testSale("sale-1", now, sale.StatusCancelled)
	require.NoError(t, f.sales.Save(ctx, &local))

	stale := testSale("sale-1", now.Add(-time.Hour), sale.StatusCompleted)
	env := mustEnvelope(t, event.KindSync, sale.EventSaleSynced, sale.SaleChange{Sale: stale})
	require.NoError(t, f.dispatcher.Dispatch(ctx, env))

	got, err := f.sales.GetByID(ctx, "t1", "sale-1")
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCancelled, got.Status)
}

func TestDispatcher_SaleSynced_NewerIncomingApplies(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()

	now := time.Now()
	local := testSale("sale-1", now, sale.StatusCompleted)
	require.NoError(t, f.sales.Save(ctx, &local))

	newer := testSale("sale-1", now.Add(time.Hour), sale.StatusRefunded)
	env := mustEnvelope(t, event.KindSync, sale.EventSaleSynced, sale.SaleChange{Sale: newer})
	require.NoError(t, f.dispatcher.Dispatch(ctx, env))

	got, err := f.sales.GetByID(ctx, "t1", "sale-1")
	require.NoError(t, err)
	assert.Equal(t, sale.StatusRefunded, got.Status)
}

func TestDispatcher_SaleSynced_FirstSightApplies(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()

	incoming := testSale("sale-9", time.Now(), sale.StatusCompleted)
	env := mustEnvelope(t, event.KindSync, sale.EventSaleSynced, sale.SaleChange{Sale: incoming})
	require.NoError(t, f.dispatcher.Dispatch(ctx, env))

	got, err := f.sales.GetByID(ctx, "t1", "sale-9")
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCompleted, got.Status)
}

// ============================================
// Inventory Event Tests
// ============================================

func TestDispatcher_ProductCreated_Upserts(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()

	p := testProduct("prod-1", 20, time.Now())
	env := mustEnvelope(t, event.KindInventory, product.EventProductCreated, product.InventoryChange{Product: p})
	require.NoError(t, f.dispatcher.Dispatch(ctx, env))

	got, err := f.products.GetByID(ctx, "t1", "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 20, got.StockQuantity)
}

func TestDispatcher_StockDecreased_ReplaysDelta(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()

	seed := testProduct("prod-1", 10, time.Now())
	require.NoError(t, f.products.Save(ctx, &seed))

	after := testProduct("prod-1", 7, time.Now())
	env := mustEnvelope(t, event.KindInventory, product.EventStockDecreased,
		product.InventoryChange{Product: after, QuantityChange: -3})
	require.NoError(t, f.dispatcher.Dispatch(ctx, env))

	got, err := f.products.GetByID(ctx, "t1", "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.StockQuantity)
}

func TestDispatcher_StockDecreased_ClampsAtZero(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()

	// Replica believes 2, origin consumed 5: clamp instead of failing.
	seed := testProduct("prod-1", 2, time.Now())
	require.NoError(t, f.products.Save(ctx, &seed))

	after := testProduct("prod-1", 0, time.Now())
	env := mustEnvelope(t, event.KindInventory, product.EventStockDecreased,
		product.InventoryChange{Product: after, QuantityChange: -5})
	require.NoError(t, f.dispatcher.Dispatch(ctx, env))

	got, err := f.products.GetByID(ctx, "t1", "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.StockQuantity)
}

func TestDispatcher_StockDelta_UnknownProductAdoptsSnapshot(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()

	after := testProduct("prod-new", 42, time.Now())
	env := mustEnvelope(t, event.KindInventory, product.EventStockIncreased,
		product.InventoryChange{Product: after, QuantityChange: 42})
	require.NoError(t, f.dispatcher.Dispatch(ctx, env))

	got, err := f.products.GetByID(ctx, "t1", "prod-new")
	require.NoError(t, err)
	assert.Equal(t, 42, got.StockQuantity)
}

func TestDispatcher_ProductSynced_LastWriteWins(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()

	now := time.Now()
	local := testProduct("prod-1", 10, now)
	local.Name = "Local Name"
	require.NoError(t, f.products.Save(ctx, &local))

	stale := testProduct("prod-1", 3, now.Add(-time.Minute))
	env := mustEnvelope(t, event.KindInventory, product.EventProductSynced,
		product.InventoryChange{Product: stale})
	require.NoError(t, f.dispatcher.Dispatch(ctx, env))

	got, err := f.products.GetByID(ctx, "t1", "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "Local Name", got.Name)
	assert.Equal(t, 10, got.StockQuantity)
}

// ============================================
// Dedup and Robustness Tests
// ============================================

func TestDispatcher_DedupSuppressesRedelivery(t *testing.T) {
	f := newDispatcherFixture(newMemoryDedup())
	ctx := context.Background()

	seed := testProduct("prod-1", 10, time.Now())
	require.NoError(t, f.products.Save(ctx, &seed))

	env := mustEnvelope(t, event.KindInventory, product.EventStockDecreased,
		product.InventoryChange{Product: testProduct("prod-1", 7, time.Now()), QuantityChange: -3})

	require.NoError(t, f.dispatcher.Dispatch(ctx, env))
	// Same envelope again: the delta must not apply twice.
	require.NoError(t, f.dispatcher.Dispatch(ctx, env))

	got, err := f.products.GetByID(ctx, "t1", "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.StockQuantity)
}

func TestDispatcher_UnknownKindIsDropped(t *testing.T) {
	f := newDispatcherFixture(nil)

	env := mustEnvelope(t, event.Kind("telemetry"), "Heartbeat", map[string]string{})
	assert.NoError(t, f.dispatcher.Dispatch(context.Background(), env))
}

func TestDispatcher_MalformedPayloadReturnsError(t *testing.T) {
	f := newDispatcherFixture(nil)

	env := mustEnvelope(t, event.KindSale, sale.EventSaleCreated, "not an object")
	assert.Error(t, f.dispatcher.Dispatch(context.Background(), env))
}
