package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pos-backend/internal/domain/product"
)

func seedProduct(t *testing.T, ms *MemoryProductStore, id string, stock int) {
	t.Helper()
	now := time.Now()
	err := ms.Create(context.Background(), &product.Product{
		ID:             id,
		TenantID:       "t1",
		Name:           "Beans",
		Price:          1200,
		StockQuantity:  stock,
		AlertThreshold: 5,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
}

func TestMemoryProductStore_AdjustStock(t *testing.T) {
	ms := NewMemoryProductStore()
	seedProduct(t, ms, "prod-1", 10)
	ctx := context.Background()

	level, err := ms.AdjustStock(ctx, "t1", "prod-1", -4)
	require.NoError(t, err)
	assert.Equal(t, 10, level.OldQuantity)
	assert.Equal(t, 6, level.NewQuantity)
	assert.Equal(t, 5, level.AlertThreshold)

	_, err = ms.AdjustStock(ctx, "t1", "prod-1", -7)
	assert.ErrorIs(t, err, product.ErrInsufficientStock)

	got, err := ms.GetByID(ctx, "t1", "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 6, got.StockQuantity)
}

func TestMemoryProductStore_AdjustStock_NotFound(t *testing.T) {
	ms := NewMemoryProductStore()

	_, err := ms.AdjustStock(context.Background(), "t1", "missing", 1)
	assert.ErrorIs(t, err, product.ErrNotFound)
}

// Concurrent decrements must serialize: the final quantity reflects
// exactly the adjustments that succeeded, never a lost update.
func TestMemoryProductStore_AdjustStock_Concurrent(t *testing.T) {
	ms := NewMemoryProductStore()
	seedProduct(t, ms, "prod-1", 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	succeeded := make(chan int, 150)
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ms.AdjustStock(ctx, "t1", "prod-1", -1); err == nil {
				succeeded <- 1
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	wins := 0
	for range succeeded {
		wins++
	}
	assert.Equal(t, 100, wins)

	got, err := ms.GetByID(ctx, "t1", "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.StockQuantity)
}

func TestMemoryProductStore_ReadsReturnCopies(t *testing.T) {
	ms := NewMemoryProductStore()
	seedProduct(t, ms, "prod-1", 10)
	ctx := context.Background()

	got, err := ms.GetByID(ctx, "t1", "prod-1")
	require.NoError(t, err)
	got.StockQuantity = 999

	again, err := ms.GetByID(ctx, "t1", "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, again.StockQuantity)
}
