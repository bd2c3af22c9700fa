// Package eventbus publishes JSON messages to a broker.
package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// Publisher sends payloads to a message broker under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// Message is a payload captured by a MemoryPublisher.
type Message struct {
	RoutingKey string
	Payload    []byte
}

// MemoryPublisher keeps published messages in memory. Used in development and tests.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
	logger   *slog.Logger
}

// NewMemoryPublisher creates an in-memory publisher.
func NewMemoryPublisher(logger *slog.Logger) *MemoryPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryPublisher{logger: logger}
}

// Publish records the message.
func (p *MemoryPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	body := make([]byte, len(payload))
	copy(body, payload)
	p.messages = append(p.messages, Message{RoutingKey: routingKey, Payload: body})

	p.logger.Debug("memory publish", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Messages returns a copy of everything published so far.
func (p *MemoryPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Close is a no-op.
func (p *MemoryPublisher) Close() error {
	return nil
}
