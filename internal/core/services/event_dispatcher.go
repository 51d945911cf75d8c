package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/metrics"
)

// EventSink accepts committed events for publishing. Enqueue never blocks and never fails
// the caller; delivery problems are logged.
type EventSink interface {
	Enqueue(ctx context.Context, routingKey string, msg domain.EventMessage)
}

type outboundEvent struct {
	routingKey string
	msg        domain.EventMessage
}

// EventDispatcher publishes events from a single goroutine so that events enqueued in
// order reach the bus in order.
type EventDispatcher struct {
	publisher      portssvc.EventPublisher
	queue          chan outboundEvent
	publishTimeout time.Duration
	logger         *slog.Logger

	startOnce sync.Once
	done      chan struct{}
}

// NewEventDispatcher creates a dispatcher with a buffer of queueSize events.
func NewEventDispatcher(publisher portssvc.EventPublisher, queueSize int, logger *slog.Logger) *EventDispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventDispatcher{
		publisher:      publisher,
		queue:          make(chan outboundEvent, queueSize),
		publishTimeout: 5 * time.Second,
		logger:         logger.With(slog.String("component", "event_dispatcher")),
		done:           make(chan struct{}),
	}
}

var (
	_ EventSink                 = (*EventDispatcher)(nil)
	_ portssvc.BackgroundWorker = (*EventDispatcher)(nil)
)

// Name implements portssvc.BackgroundWorker
func (d *EventDispatcher) Name() string { return "event_dispatcher" }

// Enqueue implements EventSink
func (d *EventDispatcher) Enqueue(ctx context.Context, routingKey string, msg domain.EventMessage) {
	select {
	case d.queue <- outboundEvent{routingKey: routingKey, msg: msg}:
		metrics.EventQueueDepth.Inc()
	default:
		metrics.EventsPublished.WithLabelValues("dropped").Inc()
		d.logger.ErrorContext(ctx, "Event queue full, dropping event",
			slog.String("error", apperrors.ErrPublishFailure.Error()),
			slog.String("routing_key", routingKey),
			slog.String("order_id", msg.OrderID),
			slog.String("event_type", string(msg.EventType)))
	}
}

// Start implements portssvc.BackgroundWorker. When ctx is cancelled the events already
// queued are still published before Done is closed.
func (d *EventDispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		go func() {
			defer close(d.done)
			for {
				select {
				case <-ctx.Done():
					d.drain()
					d.logger.Info("Event dispatcher stopped")
					return
				case ev := <-d.queue:
					d.publish(ctx, ev)
				}
			}
		}()
	})
}

// Done is closed once the dispatcher has stopped and drained its queue.
func (d *EventDispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *EventDispatcher) drain() {
	for {
		select {
		case ev := <-d.queue:
			d.publish(context.Background(), ev)
		default:
			return
		}
	}
}

func (d *EventDispatcher) publish(ctx context.Context, ev outboundEvent) {
	metrics.EventQueueDepth.Dec()

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(pubCtx, ev.routingKey, ev.msg); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		d.logger.Error("Failed to publish order event",
			slog.String("error", fmt.Errorf("%w: %w", apperrors.ErrPublishFailure, err).Error()),
			slog.String("routing_key", ev.routingKey),
			slog.String("order_id", ev.msg.OrderID),
			slog.String("event_type", string(ev.msg.EventType)))
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
}
