package mocks

import (
	"context"
	"sync"

	"github.com/example/pos-backend/internal/event"
)

// MockPublisher records published envelopes for assertions in tests.
type MockPublisher struct {
	mu sync.Mutex

	PublishCalls []PublishCall
	PublishErr   error
}

// PublishCall records the parameters of one Publish invocation.
type PublishCall struct {
	Channel  string
	Key      string
	Envelope event.Envelope
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{PublishCalls: make([]PublishCall, 0)}
}

func (m *MockPublisher) Publish(ctx context.Context, channel, key string, env event.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCalls = append(m.PublishCalls, PublishCall{
		Channel:  channel,
		Key:      key,
		Envelope: env,
	})
	return m.PublishErr
}

// CallsTo returns the recorded calls for one channel.
func (m *MockPublisher) CallsTo(channel string) []PublishCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var calls []PublishCall
	for _, c := range m.PublishCalls {
		if c.Channel == channel {
			calls = append(calls, c)
		}
	}
	return calls
}

// TypesTo returns the event type names published to one channel, in order.
func (m *MockPublisher) TypesTo(channel string) []string {
	var types []string
	for _, c := range m.CallsTo(channel) {
		types = append(types, c.Envelope.Type)
	}
	return types
}

// Reset clears recorded calls.
func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishCalls = m.PublishCalls[:0]
	m.PublishErr = nil
}
