package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/example/pos-backend/internal/event"
)

// EnvelopeHandler processes one decoded envelope. Returning an error
// does not block the stream: the message is logged and consumption
// advances, so a poison message can never wedge a partition.
type EnvelopeHandler func(ctx context.Context, env event.Envelope) error

// Consumer reads event envelopes from one consumer group across the
// given topics.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers, topics []string, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		MinBytes:    10e3, // 10KB
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

// Consume blocks, delivering envelopes to the handler until the
// context is cancelled.
func (c *Consumer) Consume(ctx context.Context, handler EnvelopeHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("Error reading message: %v", err)
				continue
			}

			var env event.Envelope
			if err := json.Unmarshal(msg.Value, &env); err != nil {
				log.Printf("Error decoding message from %s: %v", msg.Topic, err)
				continue
			}

			if err := handler(ctx, env); err != nil {
				log.Printf("Error handling %s event %s: %v", env.Type, env.ID, err)
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
