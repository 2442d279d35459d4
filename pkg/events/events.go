package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/diagnosis/travel-reservations/internal/domain"
	"github.com/diagnosis/travel-reservations/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url, name string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

// Check reports whether the connection is usable; used by readiness checks.
func (n *NATSPublisher) Check(context.Context) error {
	if status := n.conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats connection %s", status)
	}
	return nil
}

func (n *NATSPublisher) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// NopPublisher discards every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                      { return nil }

type ReservationEvent struct {
	EventID    string                   `json:"event_id"`
	Kind       domain.ReservationKind   `json:"kind"`
	Action     domain.ReservationAction `json:"action"`
	ID         string                   `json:"id,omitempty"`
	RequestID  string                   `json:"request_id,omitempty"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// Subject returns "<prefix>.<kind>.<action>", e.g. reservations.flight.canceled.
func Subject(prefix string, kind domain.ReservationKind, action domain.ReservationAction) string {
	return fmt.Sprintf("%s.%s.%s", prefix, kind, action)
}

// Notifier publishes reservation events without ever failing the caller.
type Notifier struct {
	pub    Publisher
	prefix string
	now    func() time.Time
}

func NewNotifier(pub Publisher, prefix string) *Notifier {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Notifier{pub: pub, prefix: prefix, now: time.Now}
}

func (n *Notifier) Notify(ctx context.Context, kind domain.ReservationKind, action domain.ReservationAction, id string) {
	evt := ReservationEvent{
		EventID:    uuid.NewString(),
		Kind:       kind,
		Action:     action,
		ID:         id,
		RequestID:  logger.RequestID(ctx),
		OccurredAt: n.now().UTC(),
	}
	subject := Subject(n.prefix, kind, action)
	if err := n.pub.Publish(ctx, subject, evt); err != nil {
		logger.WarnContext(ctx, "Failed to publish reservation event", "subject", subject, "error", err)
	}
}
