package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/diagnosis/restaurant-management/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

const headerMsgID = "Nats-Msg-Id"

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url, name string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
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

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(headerMsgID, uuid.NewString())
	if requestID := logger.RequestID(ctx); requestID != "" {
		msg.Header.Set("X-Request-ID", requestID)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.PublishMsg(msg)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

func toMessage(msg *nats.Msg) *Message {
	id := ""
	if msg.Header != nil {
		id = msg.Header.Get(headerMsgID)
	}
	if id == "" {
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return &Message{
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: time.Now(),
		ID:        id,
	}
}

// NopBus logs published events and drops them. Used when NATS is disabled.
type NopBus struct{}

func (NopBus) Publish(ctx context.Context, subject string, _ interface{}) error {
	logger.DebugContext(ctx, "Event bus disabled, dropping event", "subject", subject)
	return nil
}

func (NopBus) Subscribe(string, func(msg *Message)) error               { return nil }
func (NopBus) QueueSubscribe(string, string, func(msg *Message)) error { return nil }
func (NopBus) Close() error                                            { return nil }

// Connect returns a NATS bus when enabled and a NopBus otherwise.
func Connect(enabled bool, url, name string) (EventBus, error) {
	if !enabled {
		return NopBus{}, nil
	}
	return NewNATSEventBus(url, name)
}

// Emit publishes and logs failures instead of returning them. Call it only after
// the owning transaction has committed.
func Emit(ctx context.Context, bus Publisher, subject string, data interface{}) {
	if bus == nil {
		return
	}
	if err := bus.Publish(context.WithoutCancel(ctx), subject, data); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}

// Event types and subjects
const (
	// Identity events
	UserRegistered = "identity.user.registered"
	UserVerified   = "identity.user.verified"
	AccountLocked  = "identity.account.locked"

	// Organization events
	OrganizationCreated = "organization.created"
	LocationCreated     = "location.created"
	LocationUpdated     = "location.updated"
	LocationClosed      = "location.closed"

	// Menu events
	MenuCreated          = "menu.created"
	MenuUpdated          = "menu.updated"
	MenuDeleted          = "menu.deleted"
	MenuLocationAttached = "menu.location.attached"
	MenuLocationDetached = "menu.location.detached"
)

// Event payloads
type UserRegisteredEvent struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

type UserVerifiedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}

type AccountLockedEvent struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	LockedUntil time.Time `json:"locked_until"`
}

type OrganizationCreatedEvent struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	OwnerUserID    uuid.UUID `json:"owner_user_id"`
	Name           string    `json:"name"`
	PlanType       string    `json:"plan_type"`
	TrialEndDate   time.Time `json:"trial_end_date"`
	LocationID     uuid.UUID `json:"location_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type LocationEvent struct {
	LocationID     uuid.UUID `json:"location_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Status         string    `json:"status"`
	ActorUserID    uuid.UUID `json:"actor_user_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type MenuEvent struct {
	MenuID         uuid.UUID   `json:"menu_id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	LocationIDs    []uuid.UUID `json:"location_ids,omitempty"`
	ActorUserID    uuid.UUID   `json:"actor_user_id"`
	OccurredAt     time.Time   `json:"occurred_at"`
}
