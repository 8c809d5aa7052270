package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/pos-backend/internal/event"
)

// Producer publishes event envelopes to Kafka. The writer is shared
// across topics; each message names its topic explicitly. Writes are
// asynchronous: a publish failure is logged by the completion callback
// and never unwinds the state change that produced the event.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				for _, msg := range messages {
					log.Printf("[Kafka] delivery to %s failed for key %s: %v", msg.Topic, msg.Key, err)
				}
			}
		},
	}
	return &Producer{writer: writer}
}

// Publish enqueues an envelope on the given channel, keyed by entity
// id so events for one entity stay ordered within a partition.
func (p *Producer) Publish(ctx context.Context, channel, key string, env event.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: channel,
		Key:   []byte(key),
		Value: data,
		Time:  env.Timestamp,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
