package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects published by the auth service
const (
	SubjectUserRegistered  = "auth.user.registered"
	SubjectUserLoggedIn    = "auth.user.logged_in"
	SubjectUserLoggedOut   = "auth.user.logged_out"
	SubjectTokenRefreshed  = "auth.token.refreshed"
	SubjectTenantDeleted   = "auth.tenant.deleted"
	SubjectPaymentRecorded = "auth.tenant.payment_recorded"
)

// Event is the envelope of every message published by the service
type Event struct {
	EventType string    `json:"event_type"`
	UserID    uint      `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	TenantID  *uint     `json:"tenant_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits domain events. Implementations must not block the caller
// on a slow or absent broker.
type Publisher interface {
	Publish(ctx context.Context, subject string, event Event) error
	Close()
}

// NopPublisher discards every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }

func (NopPublisher) Close() {}

// NATSPublisher publishes events as JSON on core NATS subjects
type NATSPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewNATSPublisher connects to url
func NewNATSPublisher(url, name string, logger *zap.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("Connected to NATS", zap.String("url", url))
	return &NATSPublisher{conn: conn, logger: logger}, nil
}

// Publish stamps and sends event on subject
func (p *NATSPublisher) Publish(ctx context.Context, subject string, event Event) error {
	event.EventType = subject
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("NATS drain failed", zap.Error(err))
		p.conn.Close()
	}
}
