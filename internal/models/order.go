package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeOrder is a row of exchange_orders.
type ExchangeOrder struct {
	OrderID             string           `db:"order_id"`
	MerchantID          string           `db:"merchant_id"`
	QuoteID             string           `db:"quote_id"` // Unique, one order per lock
	PlannedSellCurrency string           `db:"planned_sell_currency"`
	PlannedSellAmount   decimal.Decimal  `db:"planned_sell_amount"`
	PlannedBuyCurrency  string           `db:"planned_buy_currency"`
	PlannedBuyAmount    decimal.Decimal  `db:"planned_buy_amount"`
	CustomerRate        decimal.Decimal  `db:"customer_rate"`
	OrderStatus         string           `db:"order_status"`
	ChannelID           *string          `db:"channel_id"`
	ChannelInquiryID    *string          `db:"channel_inquiry_id"`
	ChannelOrderID      *string          `db:"channel_order_id"`
	ActualSellAmount    *decimal.Decimal `db:"actual_sell_amount"`
	ActualBuyAmount     *decimal.Decimal `db:"actual_buy_amount"`
	ActualRate          *decimal.Decimal `db:"actual_rate"`
	CostAmount          *decimal.Decimal `db:"cost_amount"`
	ProfitAmount        *decimal.Decimal `db:"profit_amount"`
	CreatedAt           time.Time        `db:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at"`
	ExecutedAt          *time.Time       `db:"executed_at"`
	CompletedAt         *time.Time       `db:"completed_at"`
	FailureReason       *string          `db:"failure_reason"`
}

// OrderEvent is a row of order_events. EventData is stored as jsonb.
type OrderEvent struct {
	EventID     string         `db:"event_id"`
	OrderID     string         `db:"order_id"`
	EventType   string         `db:"event_type"`
	EventData   map[string]any `db:"event_data"`
	TriggeredBy *string        `db:"triggered_by"`
	Notes       *string        `db:"notes"`
	CreatedAt   time.Time      `db:"created_at"`
}
