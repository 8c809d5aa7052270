package notification

import (
	"context"
	"log"

	"github.com/example/pos-backend/internal/domain/product"
	"github.com/example/pos-backend/internal/email"
	"github.com/example/pos-backend/internal/event"
)

// Handler turns inventory threshold events into merchant emails.
type Handler struct {
	emailService *email.Service
	alertAddress string
}

// NewHandler creates a new notification handler. alertAddress receives
// every stock alert; per-tenant routing is not modeled yet.
func NewHandler(emailSvc *email.Service, alertAddress string) *Handler {
	return &Handler{
		emailService: emailSvc,
		alertAddress: alertAddress,
	}
}

// HandleEvent processes an envelope from the inventory channel.
func (h *Handler) HandleEvent(ctx context.Context, env event.Envelope) error {
	switch env.Type {
	case product.EventStockAlert:
		return h.handleStockAlert(env)
	case product.EventOutOfStock:
		return h.handleOutOfStock(env)
	}
	return nil
}

func (h *Handler) handleStockAlert(env event.Envelope) error {
	var change product.InventoryChange
	if err := env.Decode(&change); err != nil {
		log.Printf("[Notifier] Failed to unmarshal StockAlert event: %v", err)
		return err
	}

	p := change.Product
	log.Printf("[Notifier] Processing StockAlert for product %s (tenant %s, stock %d)",
		p.ID, env.TenantID, p.StockQuantity)

	if err := h.emailService.SendStockAlert(h.alertAddress, p.Name, p.StockQuantity, p.AlertThreshold); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", h.alertAddress, err)
		return err
	}

	log.Printf("[Notifier] Stock alert email sent to %s for product %s", h.alertAddress, p.ID)
	return nil
}

func (h *Handler) handleOutOfStock(env event.Envelope) error {
	var change product.InventoryChange
	if err := env.Decode(&change); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OutOfStock event: %v", err)
		return err
	}

	p := change.Product
	log.Printf("[Notifier] Processing OutOfStock for product %s (tenant %s)", p.ID, env.TenantID)

	if err := h.emailService.SendOutOfStock(h.alertAddress, p.Name); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", h.alertAddress, err)
		return err
	}

	log.Printf("[Notifier] Out of stock email sent to %s for product %s", h.alertAddress, p.ID)
	return nil
}
