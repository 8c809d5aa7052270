package product

const (
	EventProductCreated = "ProductCreated"
	EventProductUpdated = "ProductUpdated"
	EventProductDeleted = "ProductDeleted"
	EventProductSynced  = "ProductSynced"
	EventStockIncreased = "StockIncreased"
	EventStockDecreased = "StockDecreased"
	EventStockAlert     = "StockAlert"
	EventOutOfStock     = "OutOfStock"
	EventBackInStock    = "BackInStock"
)

// InventoryChange is the payload snapshot for inventory events. It
// carries the product state after the change plus the signed delta
// that produced it (zero for non-stock events).
type InventoryChange struct {
	Product        Product `json:"product"`
	QuantityChange int     `json:"quantity_change"`
}
