package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a state of the order execution/settlement machine.
type OrderStatus string

const (
	QuoteLockedStatus    OrderStatus = "quote_locked"
	OrderCreated         OrderStatus = "order_created"
	FxInquiring          OrderStatus = "fx_inquiring"
	FxExecuting          OrderStatus = "fx_executing"
	FxSuccess            OrderStatus = "fx_success"
	FxFailed             OrderStatus = "fx_failed"
	SettlementProcessing OrderStatus = "settlement_processing"
	SettlementSuccess    OrderStatus = "settlement_success"
	SettlementFailed     OrderStatus = "settlement_failed"
	OrderCompleted       OrderStatus = "order_completed"
	OrderClosed          OrderStatus = "order_closed"
	OrderCancelled       OrderStatus = "order_cancelled"
)

// ValidOrderTransitions is the full edge set of the order machine. Anything else is rejected.
var ValidOrderTransitions = map[OrderStatus][]OrderStatus{
	QuoteLockedStatus:    {OrderCreated, OrderCancelled},
	OrderCreated:         {FxInquiring, OrderCancelled},
	FxInquiring:          {FxExecuting, FxFailed, OrderCancelled},
	FxExecuting:          {FxSuccess, FxFailed},
	FxSuccess:            {SettlementProcessing},
	SettlementProcessing: {SettlementSuccess, SettlementFailed},
	SettlementSuccess:    {OrderCompleted},
	OrderCompleted:       {OrderClosed},
}

// AllOrderStatuses lists every status in machine order.
var AllOrderStatuses = []OrderStatus{
	QuoteLockedStatus, OrderCreated, FxInquiring, FxExecuting, FxSuccess, FxFailed,
	SettlementProcessing, SettlementSuccess, SettlementFailed, OrderCompleted, OrderClosed, OrderCancelled,
}

// CanTransition reports whether from -> to is an edge of the machine.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range ValidOrderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	for _, known := range AllOrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing edges.
func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(ValidOrderTransitions[s]) == 0
}

// IsCancellable reports whether a caller may still cancel an order in s.
func (s OrderStatus) IsCancellable() bool {
	return CanTransition(s, OrderCancelled)
}

// ExchangeOrder is created only by consuming a locked QuoteLock. Planned figures come from the lock, actual ones from the channel.
type ExchangeOrder struct {
	ID                  string           `json:"id"`
	MerchantID          string           `json:"merchantId"`
	QuoteID             string           `json:"quoteId"`
	PlannedSellCurrency string           `json:"plannedSellCurrency"`
	PlannedSellAmount   decimal.Decimal  `json:"plannedSellAmount"`
	PlannedBuyCurrency  string           `json:"plannedBuyCurrency"`
	PlannedBuyAmount    decimal.Decimal  `json:"plannedBuyAmount"`
	CustomerRate        decimal.Decimal  `json:"customerRate"`
	OrderStatus         OrderStatus      `json:"orderStatus"`
	ChannelID           *string          `json:"channelId,omitempty"`
	ChannelInquiryID    *string          `json:"channelInquiryId,omitempty"`
	ChannelOrderID      *string          `json:"channelOrderId,omitempty"`
	ActualSellAmount    *decimal.Decimal `json:"actualSellAmount,omitempty"`
	ActualBuyAmount     *decimal.Decimal `json:"actualBuyAmount,omitempty"`
	ActualRate          *decimal.Decimal `json:"actualRate,omitempty"`
	CostAmount          *decimal.Decimal `json:"costAmount,omitempty"`
	ProfitAmount        *decimal.Decimal `json:"profitAmount,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
	ExecutedAt          *time.Time       `json:"executedAt,omitempty"`
	CompletedAt         *time.Time       `json:"completedAt,omitempty"`
	FailureReason       *string          `json:"failureReason,omitempty"`
}

// NewOrderFromLock builds the ORDER_CREATED order for a consumed lock.
func NewOrderFromLock(orderID string, lock QuoteLock, now time.Time) ExchangeOrder {
	return ExchangeOrder{
		ID:                  orderID,
		MerchantID:          lock.MerchantID,
		QuoteID:             lock.QuoteID,
		PlannedSellCurrency: lock.SellCurrency,
		PlannedSellAmount:   lock.SellAmount,
		PlannedBuyCurrency:  lock.BuyCurrency,
		PlannedBuyAmount:    lock.BuyAmount,
		CustomerRate:        lock.Rate,
		OrderStatus:         OrderCreated,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// TransitionPayload carries the fields a transition may set plus free-form event data.
// Nil fields leave the order untouched.
type TransitionPayload struct {
	ChannelID        *string          `json:"channelId,omitempty"`
	ChannelInquiryID *string          `json:"channelInquiryId,omitempty"`
	ChannelOrderID   *string          `json:"channelOrderId,omitempty"`
	ActualSellAmount *decimal.Decimal `json:"actualSellAmount,omitempty"`
	ActualBuyAmount  *decimal.Decimal `json:"actualBuyAmount,omitempty"`
	ActualRate       *decimal.Decimal `json:"actualRate,omitempty"`
	CostAmount       *decimal.Decimal `json:"costAmount,omitempty"`
	ProfitAmount     *decimal.Decimal `json:"profitAmount,omitempty"`
	FailureReason    *string          `json:"failureReason,omitempty"`
	TriggeredBy      string           `json:"triggeredBy,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	Data             map[string]any   `json:"data,omitempty"`
}

// Apply copies the payload onto o and moves it to target, stamping the timestamps tied to that status.
func (o *ExchangeOrder) Apply(target OrderStatus, p TransitionPayload, now time.Time) {
	if p.ChannelID != nil {
		o.ChannelID = p.ChannelID
	}
	if p.ChannelInquiryID != nil {
		o.ChannelInquiryID = p.ChannelInquiryID
	}
	if p.ChannelOrderID != nil {
		o.ChannelOrderID = p.ChannelOrderID
	}
	if p.ActualSellAmount != nil {
		o.ActualSellAmount = p.ActualSellAmount
	}
	if p.ActualBuyAmount != nil {
		o.ActualBuyAmount = p.ActualBuyAmount
	}
	if p.ActualRate != nil {
		o.ActualRate = p.ActualRate
	}
	if p.CostAmount != nil {
		o.CostAmount = p.CostAmount
	}
	if p.ProfitAmount != nil {
		o.ProfitAmount = p.ProfitAmount
	}
	if p.FailureReason != nil {
		o.FailureReason = p.FailureReason
	}
	switch target {
	case FxSuccess:
		o.ExecutedAt = &now
	case OrderCompleted:
		o.CompletedAt = &now
	}
	o.OrderStatus = target
	o.UpdatedAt = now
}
