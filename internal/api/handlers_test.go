package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pos-backend/internal/domain/product"
	"github.com/example/pos-backend/internal/domain/sale"
	"github.com/example/pos-backend/internal/event/mocks"
	"github.com/example/pos-backend/internal/infrastructure/store"
	"github.com/example/pos-backend/internal/tenant"
)

func newTestHandlers() (*Handlers, *product.Service) {
	productStore := store.NewMemoryProductStore()
	saleStore := store.NewMemorySaleStore(productStore)
	publisher := mocks.NewMockPublisher()
	products := product.NewService(productStore, publisher)
	sales := sale.NewService(saleStore, products, publisher)
	return NewHandlers(products, sales), products
}

// ============================================
// Stock Adjustment Handler Tests
// ============================================

func TestHandlers_AdjustStock_ReportsThresholdSignals(t *testing.T) {
	handlers, products := newTestHandlers()

	created, err := products.Create(context.Background(), tenant.DefaultTenant, "user-1", &product.Product{
		Name:           "Beans",
		Price:          1200,
		StockQuantity:  12,
		AlertThreshold: 10,
	})
	require.NoError(t, err)

	body := bytes.NewBufferString(`{"delta":-5}`)
	req := httptest.NewRequest(http.MethodPost, "/products/"+created.ID+"/stock", body)
	rec := httptest.NewRecorder()

	handlers.AdjustStock(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ProductID             string `json:"product_id"`
		OldQuantity           int    `json:"old_quantity"`
		NewQuantity           int    `json:"new_quantity"`
		CrossedAlertThreshold bool   `json:"crossed_alert_threshold"`
		BecameOutOfStock      bool   `json:"became_out_of_stock"`
		BecameInStock         bool   `json:"became_in_stock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, created.ID, resp.ProductID)
	assert.Equal(t, 12, resp.OldQuantity)
	assert.Equal(t, 7, resp.NewQuantity)
	assert.True(t, resp.CrossedAlertThreshold)
	assert.False(t, resp.BecameOutOfStock)
	assert.False(t, resp.BecameInStock)
}

func TestHandlers_AdjustStock_InsufficientStockConflict(t *testing.T) {
	handlers, products := newTestHandlers()

	created, err := products.Create(context.Background(), tenant.DefaultTenant, "user-1", &product.Product{
		Name:          "Beans",
		Price:         1200,
		StockQuantity: 3,
	})
	require.NoError(t, err)

	body := bytes.NewBufferString(`{"delta":-4}`)
	req := httptest.NewRequest(http.MethodPost, "/products/"+created.ID+"/stock", body)
	rec := httptest.NewRecorder()

	handlers.AdjustStock(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// ============================================
// Date Range Parsing Tests
// ============================================

func TestParseDateRange_ExplicitDates(t *testing.T) {
	from, to, err := parseDateRange("2026-08-01", "2026-08-31")

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), from)
	// The to date is inclusive on the wire, so the half-open upper
	// bound is the following midnight.
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestParseDateRange_DefaultsAreUTCMidnights(t *testing.T) {
	from, to, err := parseDateRange("", "")
	require.NoError(t, err)

	// Defaults must sit on the same UTC day boundaries explicit dates
	// parse to, independent of the server's local zone.
	for _, ts := range []time.Time{from, to} {
		assert.Equal(t, time.UTC, ts.Location())
		h, m, s := ts.Clock()
		assert.Zero(t, h)
		assert.Zero(t, m)
		assert.Zero(t, s)
	}
	assert.Equal(t, from.AddDate(0, 0, 31), to)

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today.AddDate(0, 0, 1), to)
}

func TestParseDateRange_Malformed(t *testing.T) {
	_, _, err := parseDateRange("08/01/2026", "")
	assert.Error(t, err)

	_, _, err = parseDateRange("", "yesterday")
	assert.Error(t, err)
}
