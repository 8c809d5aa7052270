package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an envelope by the domain it belongs to. Dispatch on
// the consuming side switches exhaustively on this tag.
type Kind string

const (
	KindSale      Kind = "sale"
	KindInventory Kind = "inventory"
	KindPayment   Kind = "payment"
	KindSync      Kind = "sync"
)

// Named channels, one per domain. Producers publish with the entity id
// as the message key so that events for one entity stay ordered.
const (
	ChannelSales     = "pos.sales"
	ChannelInventory = "pos.inventory"
	ChannelPayments  = "pos.payments"
	ChannelSync      = "pos.sync"
)

// ChannelFor returns the channel an envelope of the given kind is
// published to.
func ChannelFor(k Kind) string {
	switch k {
	case KindSale:
		return ChannelSales
	case KindInventory:
		return ChannelInventory
	case KindPayment:
		return ChannelPayments
	case KindSync:
		return ChannelSync
	}
	return ChannelSync
}

// Envelope wraps a domain change as a typed event. The payload is a
// snapshot of the affected entity at publish time, not a diff.
// Envelopes are immutable once published.
type Envelope struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Timestamp time.Time       `json:"timestamp"`
	Origin    string          `json:"origin"` // acting user id
	Kind      Kind            `json:"kind"`
	Type      string          `json:"type"` // fine-grained event name
	Data      json.RawMessage `json:"data"`
}

// New builds an envelope around the given payload snapshot.
func New(tenantID, origin string, kind Kind, eventType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Timestamp: time.Now(),
		Origin:    origin,
		Kind:      kind,
		Type:      eventType,
		Data:      data,
	}, nil
}

// Decode unmarshals the payload snapshot into v.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Publisher delivers envelopes to a named channel. Delivery is
// best-effort: a failed publish must never roll back the committed
// state change that produced the envelope.
type Publisher interface {
	Publish(ctx context.Context, channel, key string, env Envelope) error
}
