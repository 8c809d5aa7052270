package sale

const (
	EventSaleCreated      = "SaleCreated"
	EventSaleUpdated      = "SaleUpdated"
	EventSaleCancelled    = "SaleCancelled"
	EventSaleRefunded     = "SaleRefunded"
	EventSaleSynced       = "SaleSynced"
	EventPaymentCompleted = "PaymentCompleted"
	EventPaymentFailed    = "PaymentFailed"
)

// SaleChange is the payload snapshot for sale, payment and sync
// events: the full sale as of publish time.
type SaleChange struct {
	Sale Sale `json:"sale"`
}
