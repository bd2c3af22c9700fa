package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// NotificationKind groups notifications for routing.
type NotificationKind string

const (
	KindBriefing  NotificationKind = "briefing"
	KindProactive NotificationKind = "proactive"
)

// Notification is a message for the user produced by an automated run.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Lines     []string         `json:"lines"`
	CreatedAt time.Time        `json:"created_at"`
}

// RoutingKey is the broker routing key for the notification.
func (n Notification) RoutingKey() string {
	return "notifications." + string(n.Kind)
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// StubNotifier logs notifications and keeps them in memory.
type StubNotifier struct {
	mu     sync.Mutex
	sent   []Notification
	logger *slog.Logger
}

// NewStubNotifier creates a logging notifier.
func NewStubNotifier(logger *slog.Logger) *StubNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubNotifier{logger: logger}
}

// Notify logs the notification.
func (s *StubNotifier) Notify(ctx context.Context, n Notification) error {
	s.mu.Lock()
	s.sent = append(s.sent, n)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "notification",
		"kind", n.Kind,
		"title", n.Title,
		"lines", n.Lines,
	)
	return nil
}

// Sent returns the notifications delivered so far.
func (s *StubNotifier) Sent() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.sent...)
}

// BrokerNotifier publishes notifications as JSON through an event bus publisher.
type BrokerNotifier struct {
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewBrokerNotifier creates a notifier backed by publisher.
func NewBrokerNotifier(publisher eventbus.Publisher, logger *slog.Logger) *BrokerNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrokerNotifier{publisher: publisher, logger: logger}
}

// Notify publishes n under its routing key.
func (b *BrokerNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := b.publisher.Publish(ctx, n.RoutingKey(), payload); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	b.logger.DebugContext(ctx, "notification published", "routing_key", n.RoutingKey())
	return nil
}
