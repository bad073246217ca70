// Package events publishes listing lifecycle and counter-drift events.
//
// The NATS implementation is used in production. When no NATS URL is
// configured the Nop publisher is wired instead and events are dropped.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects.
const (
	SubjectListingCreated = "listings.created"
	SubjectListingUpdated = "listings.updated"
	SubjectListingDeleted = "listings.deleted"
	SubjectCounterDrift   = "listings.counter.drift"
)

// Publisher sends an event payload on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// ListingEvent describes a listing write.
type ListingEvent struct {
	PropertyID string    `json:"property_id"`
	OwnerID    string    `json:"owner_id"`
	ActorID    string    `json:"actor_id"`
	At         time.Time `json:"at"`
}

// CounterDrift reports that a listing write succeeded but the matching
// identity-counter update did not. Consumers re-sync UserID's counter.
type CounterDrift struct {
	Op         string    `json:"op"`
	UserID     string    `json:"user_id"`
	Field      string    `json:"field"`
	Delta      int       `json:"delta"`
	PropertyID string    `json:"property_id"`
	Error      string    `json:"error"`
	At         time.Time `json:"at"`
}

// NATS publishes JSON-encoded events on a NATS connection.
type NATS struct {
	conn *nats.Conn
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url string, logger *zap.Logger) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("propertyhub"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATS{conn: conn}, nil
}

// Conn exposes the connection for subscribers.
func (p *NATS) Conn() *nats.Conn { return p.conn }

// Publish implements Publisher.
func (p *NATS) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

// Close drains pending messages and closes the connection.
func (p *NATS) Close() error {
	return p.conn.Drain()
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, any) error { return nil }
