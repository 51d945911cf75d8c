package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
)

// DefaultExchange is the topic exchange order events are published to.
const DefaultExchange = "fx.events"

// Publisher publishes events to a durable topic exchange. The connection is re-dialled lazily
// on the next publish after it drops.
type Publisher struct {
	url      string
	exchange string
	logger   *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher dials url and declares the exchange.
func NewPublisher(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		url:      url,
		exchange: exchange,
		logger:   logger.With(slog.String("component", "rabbitmq_publisher")),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

var _ portssvc.EventPublisher = (*Publisher)(nil)

func (p *Publisher) connectLocked() error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Heartbeat: 30 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}

	p.conn, p.ch = conn, ch
	p.logger.Info("RabbitMQ channel ready", slog.String("exchange", p.exchange))
	return nil
}

// Publish implements portssvc.EventPublisher
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg domain.EventMessage) error {
	publishing, err := toPublishing(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() || p.conn.IsClosed() {
		p.logger.Warn("RabbitMQ connection lost, reconnecting")
		p.closeLocked()
		if err := p.connectLocked(); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrPublishFailure, err)
		}
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, publishing); err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrPublishFailure, routingKey, err)
	}
	return nil
}

func toPublishing(msg domain.EventMessage) (amqp.Publishing, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("%w: failed to encode event: %v", apperrors.ErrPublishFailure, err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.Timestamp,
		Type:         string(msg.EventType),
		Body:         body,
	}
	if id, ok := msg.Metadata["eventId"].(string); ok {
		publishing.MessageId = id
	}
	return publishing, nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	p.logger.Info("Disconnected from RabbitMQ")
}

// LogPublisher writes events to the log instead of a broker. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With(slog.String("component", "log_publisher"))}
}

var _ portssvc.EventPublisher = (*LogPublisher)(nil)

// Publish implements portssvc.EventPublisher
func (p *LogPublisher) Publish(ctx context.Context, routingKey string, msg domain.EventMessage) error {
	p.logger.InfoContext(ctx, "Event not sent to a broker",
		slog.String("routing_key", routingKey),
		slog.String("event_type", string(msg.EventType)),
		slog.String("order_id", msg.OrderID),
		slog.Any("event_data", msg.EventData))
	return nil
}
