package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType names an entry in the order audit trail.
type EventType string

const (
	EventOrderCreated          EventType = "ORDER_CREATED"
	EventFxInquiryStarted      EventType = "FX_INQUIRY_STARTED"
	EventFxExecutionStarted    EventType = "FX_EXECUTION_STARTED"
	EventFxExecutionCompleted  EventType = "FX_EXECUTION_COMPLETED"
	EventFxExecutionFailed     EventType = "FX_EXECUTION_FAILED"
	EventSettlementStarted     EventType = "SETTLEMENT_STARTED"
	EventSettlementCompleted   EventType = "SETTLEMENT_COMPLETED"
	EventSettlementFailed      EventType = "SETTLEMENT_FAILED"
	EventOrderCompleted        EventType = "ORDER_COMPLETED"
	EventOrderClosed           EventType = "ORDER_CLOSED"
	EventOrderCancelled        EventType = "ORDER_CANCELLED"
	EventOrderStatusChanged    EventType = "ORDER_UPDATED"
	defaultOrderEventRouteBase           = "order"
)

type statusEvent struct {
	eventType  EventType
	routingKey string
}

var statusEvents = map[OrderStatus]statusEvent{
	OrderCreated:         {EventOrderCreated, "order.created"},
	FxInquiring:          {EventFxInquiryStarted, "order.fx.inquiring"},
	FxExecuting:          {EventFxExecutionStarted, "order.fx.executing"},
	FxSuccess:            {EventFxExecutionCompleted, "order.fx.success"},
	FxFailed:             {EventFxExecutionFailed, "order.fx.failed"},
	SettlementProcessing: {EventSettlementStarted, "order.settlement.processing"},
	SettlementSuccess:    {EventSettlementCompleted, "order.settlement.completed"},
	SettlementFailed:     {EventSettlementFailed, "order.settlement.failed"},
	OrderCompleted:       {EventOrderCompleted, "order.completed"},
	OrderClosed:          {EventOrderClosed, "order.closed"},
	OrderCancelled:       {EventOrderCancelled, "order.cancelled"},
}

// EventTypeFor returns the audit event type recorded when an order enters status.
func EventTypeFor(status OrderStatus) EventType {
	if e, ok := statusEvents[status]; ok {
		return e.eventType
	}
	return EventOrderStatusChanged
}

// RoutingKeyFor returns the bus routing key used when an order enters status.
func RoutingKeyFor(status OrderStatus) string {
	if e, ok := statusEvents[status]; ok {
		return e.routingKey
	}
	return defaultOrderEventRouteBase + ".updated"
}

// OrderEvent is an append-only audit row. One per transition.
type OrderEvent struct {
	ID          string         `json:"id"`
	OrderID     string         `json:"orderId"`
	EventType   EventType      `json:"eventType"`
	EventData   map[string]any `json:"eventData"`
	TriggeredBy *string        `json:"triggeredBy,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	Notes       *string        `json:"notes,omitempty"`
}

// NewTransitionEvent records from -> to with the payload that caused it.
func NewTransitionEvent(eventID string, order ExchangeOrder, from OrderStatus, p TransitionPayload, now time.Time) OrderEvent {
	data := map[string]any{
		"previousStatus": string(from),
		"newStatus":      string(order.OrderStatus),
		"merchantId":     order.MerchantID,
		"quoteId":        order.QuoteID,
	}
	if len(p.Data) > 0 {
		data["payload"] = p.Data
	}
	putString(data, "failureReason", p.FailureReason)
	putString(data, "channelId", p.ChannelID)
	putString(data, "channelInquiryId", p.ChannelInquiryID)
	putString(data, "channelOrderId", p.ChannelOrderID)
	putDecimal(data, "actualSellAmount", p.ActualSellAmount)
	putDecimal(data, "actualBuyAmount", p.ActualBuyAmount)
	putDecimal(data, "actualRate", p.ActualRate)
	putDecimal(data, "costAmount", p.CostAmount)
	putDecimal(data, "profitAmount", p.ProfitAmount)
	if p.TriggeredBy != "" {
		data["triggeredBy"] = p.TriggeredBy
	}
	if p.Notes != "" {
		data["notes"] = p.Notes
	}
	ev := OrderEvent{
		ID:        eventID,
		OrderID:   order.ID,
		EventType: EventTypeFor(order.OrderStatus),
		EventData: data,
		CreatedAt: now,
	}
	if p.TriggeredBy != "" {
		triggeredBy := p.TriggeredBy
		ev.TriggeredBy = &triggeredBy
	}
	if p.Notes != "" {
		notes := p.Notes
		ev.Notes = &notes
	}
	return ev
}

func putString(data map[string]any, key string, v *string) {
	if v != nil {
		data[key] = *v
	}
}

// Decimals are stored as strings so the jsonb copy keeps full precision.
func putDecimal(data map[string]any, key string, v *decimal.Decimal) {
	if v != nil {
		data[key] = v.String()
	}
}

// EventMessage is what goes on the bus. The core never waits on its delivery.
type EventMessage struct {
	EventType  EventType      `json:"eventType"`
	EventData  map[string]any `json:"eventData"`
	Timestamp  time.Time      `json:"timestamp"`
	OrderID    string         `json:"orderId,omitempty"`
	MerchantID string         `json:"merchantId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewEventMessage wraps a persisted event for publishing.
func NewEventMessage(ev OrderEvent, merchantID string) EventMessage {
	return EventMessage{
		EventType:  ev.EventType,
		EventData:  ev.EventData,
		Timestamp:  ev.CreatedAt,
		OrderID:    ev.OrderID,
		MerchantID: merchantID,
		Metadata:   map[string]any{"eventId": ev.ID},
	}
}
