package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Event types
const (
	EventLicenseValidated     = "license.validated"
	EventOrganizationUpdated  = "license.organization.updated"
	EventInvoiceCreated       = "license.invoice.created"
	EventInvoiceSent          = "license.invoice.sent"
	EventInvoiceStatusChanged = "license.invoice.status_changed"
)

// LicenseValidatedEvent is published after every license validation attempt.
type LicenseValidatedEvent struct {
	EventType      string    `json:"event_type"`
	OrganizationID string    `json:"organization_id"`
	OrgSlug        string    `json:"org_slug"`
	Valid          bool      `json:"valid"`
	Reason         string    `json:"reason,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// OrganizationUpdatedEvent is published when an organization's license state changes.
type OrganizationUpdatedEvent struct {
	EventType      string    `json:"event_type"`
	OrganizationID string    `json:"organization_id"`
	Slug           string    `json:"slug"`
	LicenseType    string    `json:"license_type"`
	IsActive       bool      `json:"is_active"`
	IsSuspended    bool      `json:"is_suspended"`
	Timestamp      time.Time `json:"timestamp"`
}

// InvoiceEvent is published on invoice creation, sending and status changes.
type InvoiceEvent struct {
	EventType      string    `json:"event_type"`
	InvoiceID      string    `json:"invoice_id"`
	InvoiceNumber  string    `json:"invoice_number"`
	OrganizationID string    `json:"organization_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Amount         int       `json:"amount"`
	Timestamp      time.Time `json:"timestamp"`
}

// Client wraps the NATS connection
type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Config holds NATS connection configuration
type Config struct {
	URL string
}

// NewClient creates a new NATS client
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.URL == "" {
		cfg = &Config{URL: nats.DefaultURL}
	}

	log.Printf("[NATS] Connecting to %s", cfg.URL)

	opts := []nats.Option{
		nats.Name("license-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("[NATS] Disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] Reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] Connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// LimitsPolicy so multiple consumers (billing exports, dashboards) can read
	_, err = js.AddStream(&nats.StreamConfig{
		Name:        "LICENSE_EVENTS",
		Description: "Stream for license and invoice lifecycle events",
		Subjects:    []string{"license.>"},
		Storage:     nats.FileStorage,
		Retention:   nats.LimitsPolicy,
		MaxAge:      24 * time.Hour * 7,
		MaxMsgs:     100000,
		Discard:     nats.DiscardOld,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		log.Printf("[NATS] Warning: Could not create stream (may already exist): %v", err)
	}

	log.Printf("[NATS] Connected successfully to %s", cfg.URL)

	return &Client{conn: conn, js: js}, nil
}

// PublishLicenseValidated publishes a license validation event
func (c *Client) PublishLicenseValidated(ctx context.Context, event *LicenseValidatedEvent) error {
	event.EventType = EventLicenseValidated
	return c.publish(ctx, EventLicenseValidated, event)
}

// PublishOrganizationUpdated publishes an organization update event
func (c *Client) PublishOrganizationUpdated(ctx context.Context, event *OrganizationUpdatedEvent) error {
	event.EventType = EventOrganizationUpdated
	return c.publish(ctx, EventOrganizationUpdated, event)
}

// PublishInvoiceEvent publishes an invoice lifecycle event on the given subject
func (c *Client) PublishInvoiceEvent(ctx context.Context, subject string, event *InvoiceEvent) error {
	event.EventType = subject
	return c.publish(ctx, subject, event)
}

func (c *Client) publish(ctx context.Context, subject string, event interface{}) error {
	if c == nil || c.js == nil {
		return fmt.Errorf("NATS client not initialized")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	maxRetries := 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		_, err = c.js.Publish(subject, data)
		if err == nil {
			return nil
		}
		log.Printf("[NATS] Attempt %d/%d: Failed to publish %s event: %v", attempt, maxRetries, subject, err)
		if attempt < maxRetries {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while retrying publish: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}
	}
	return fmt.Errorf("failed to publish %s event after %d attempts: %w", subject, maxRetries, err)
}

// IsConnected reports whether the underlying connection is up
func (c *Client) IsConnected() bool {
	return c != nil && c.conn != nil && c.conn.IsConnected()
}

// Close drains and closes the connection
func (c *Client) Close() {
	if c != nil && c.conn != nil {
		c.conn.Close()
	}
}
