package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the durable topic exchange all domain events flow through.
// Routing keys follow the "<subject>.<verb>" convention the domain event
// types produce (conflict.detected, proposal.resolved, decision.recorded), so
// consumers bind with patterns like "decision.*" or "#".
const ExchangeName = "untangle.events"

// appID marks published messages as ours so mixed-tenant brokers can filter.
const appID = "untangle"

// RabbitMQPublisher implements Publisher over an AMQP topic exchange. A
// single channel is shared and serialized by the mutex; amqp channels are not
// safe for concurrent publishes.
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewRabbitMQPublisher dials the broker and declares the event exchange.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := declareEventExchange(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ publisher connected", "exchange", ExchangeName)
	return &RabbitMQPublisher{conn: conn, channel: ch, logger: logger}, nil
}

// declareEventExchange is idempotent; publisher and any consumer both declare
// so startup order does not matter.
func declareEventExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(ExchangeName, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declaring exchange %s: %w", ExchangeName, err)
	}
	return nil
}

// Publish sends one serialized event envelope under its routing key.
// Messages are persistent; a lost event would silently skew downstream
// decision analytics.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		AppId:        appID,
		Type:         routingKey,
		Body:         payload,
	}
	if err := p.channel.PublishWithContext(ctx, ExchangeName, routingKey, false, false, msg); err != nil {
		p.logger.Error("event publish failed",
			"routing_key", routingKey,
			"error", err,
		)
		return fmt.Errorf("publishing %s: %w", routingKey, err)
	}

	p.logger.Debug("event published",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// Close releases the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("closing channel", "error", err)
		}
		p.channel = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		if err != nil {
			return fmt.Errorf("closing connection: %w", err)
		}
	}
	return nil
}
