package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/nats-io/nats.go"
)

const (
	SubjectOrderCreated       = "order.created"
	SubjectOrderStatusUpdated = "order.status.updated"
	SubjectOrderCancelled     = "order.cancelled"
	SubjectPaymentConfirmed   = "payment.confirmed"
	SubjectPaymentRefunded    = "payment.refunded"
)

type MessagePublisher interface {
	Publish(ctx context.Context, subject string, message interface{}) error
}

type natsPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(conn *nats.Conn) (MessagePublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("NATS connection cannot be nil")
	}
	return &natsPublisher{conn: conn}, nil
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON for subject %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish message to NATS subject %s: %w", subject, err)
	}
	return nil
}

// logPublisher stands in for NATS when no URL is configured.
type logPublisher struct {
	log logger.Logger
}

func NewLogPublisher(log logger.Logger) MessagePublisher {
	return &logPublisher{log: log}
}

func (p *logPublisher) Publish(_ context.Context, subject string, message interface{}) error {
	p.log.Debugf("Event %s: %+v", subject, message)
	return nil
}
