package dto

import (
	"time"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest creates an order by consuming a quote lock.
type CreateOrderRequest struct {
	QuoteID string `json:"quoteId" binding:"required,uuid"`
}

// TransitionOrderRequest moves an order to a new status. Used by channel callbacks and operators.
type TransitionOrderRequest struct {
	TargetStatus     string           `json:"targetStatus" binding:"required,orderstatus"`
	ChannelID        *string          `json:"channelId,omitempty"`
	ChannelInquiryID *string          `json:"channelInquiryId,omitempty"`
	ChannelOrderID   *string          `json:"channelOrderId,omitempty"`
	ActualSellAmount *decimal.Decimal `json:"actualSellAmount,omitempty"`
	ActualBuyAmount  *decimal.Decimal `json:"actualBuyAmount,omitempty"`
	ActualRate       *decimal.Decimal `json:"actualRate,omitempty"`
	CostAmount       *decimal.Decimal `json:"costAmount,omitempty"`
	ProfitAmount     *decimal.Decimal `json:"profitAmount,omitempty"`
	FailureReason    *string          `json:"failureReason,omitempty"`
	TriggeredBy      string           `json:"triggeredBy,omitempty" binding:"max=100"`
	Notes            string           `json:"notes,omitempty"`
	Data             map[string]any   `json:"data,omitempty"`
}

// ToPayload converts the request into a domain.TransitionPayload.
func (r TransitionOrderRequest) ToPayload() domain.TransitionPayload {
	return domain.TransitionPayload{
		ChannelID:        r.ChannelID,
		ChannelInquiryID: r.ChannelInquiryID,
		ChannelOrderID:   r.ChannelOrderID,
		ActualSellAmount: r.ActualSellAmount,
		ActualBuyAmount:  r.ActualBuyAmount,
		ActualRate:       r.ActualRate,
		CostAmount:       r.CostAmount,
		ProfitAmount:     r.ProfitAmount,
		FailureReason:    r.FailureReason,
		TriggeredBy:      r.TriggeredBy,
		Notes:            r.Notes,
		Data:             r.Data,
	}
}

// SettleOrderRequest reports the settlement outcome of an executed order.
type SettleOrderRequest struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty" binding:"required_if=Success false"`
}

// CancelOrderRequest carries an optional cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ListOrdersParams defines the query parameters for listing a merchant's orders.
type ListOrdersParams struct {
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// OrderResponse defines the data returned for an exchange order.
type OrderResponse struct {
	ID                  string           `json:"id"`
	MerchantID          string           `json:"merchantId"`
	QuoteID             string           `json:"quoteId"`
	PlannedSellCurrency string           `json:"plannedSellCurrency"`
	PlannedSellAmount   decimal.Decimal  `json:"plannedSellAmount"`
	PlannedBuyCurrency  string           `json:"plannedBuyCurrency"`
	PlannedBuyAmount    decimal.Decimal  `json:"plannedBuyAmount"`
	CustomerRate        decimal.Decimal  `json:"customerRate"`
	OrderStatus         string           `json:"orderStatus"`
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

// OrderEventResponse defines the data returned for an order audit event.
type OrderEventResponse struct {
	ID          string         `json:"id"`
	OrderID     string         `json:"orderId"`
	EventType   string         `json:"eventType"`
	EventData   map[string]any `json:"eventData"`
	TriggeredBy *string        `json:"triggeredBy,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ListOrdersResponse is a page of orders.
type ListOrdersResponse struct {
	Orders    []OrderResponse `json:"orders"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToOrderResponse converts a domain.ExchangeOrder to OrderResponse DTO.
func ToOrderResponse(o *domain.ExchangeOrder) OrderResponse {
	return OrderResponse{
		ID:                  o.ID,
		MerchantID:          o.MerchantID,
		QuoteID:             o.QuoteID,
		PlannedSellCurrency: o.PlannedSellCurrency,
		PlannedSellAmount:   o.PlannedSellAmount,
		PlannedBuyCurrency:  o.PlannedBuyCurrency,
		PlannedBuyAmount:    o.PlannedBuyAmount,
		CustomerRate:        o.CustomerRate,
		OrderStatus:         string(o.OrderStatus),
		ChannelID:           o.ChannelID,
		ChannelInquiryID:    o.ChannelInquiryID,
		ChannelOrderID:      o.ChannelOrderID,
		ActualSellAmount:    o.ActualSellAmount,
		ActualBuyAmount:     o.ActualBuyAmount,
		ActualRate:          o.ActualRate,
		CostAmount:          o.CostAmount,
		ProfitAmount:        o.ProfitAmount,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		ExecutedAt:          o.ExecutedAt,
		CompletedAt:         o.CompletedAt,
		FailureReason:       o.FailureReason,
	}
}

// ToOrderResponses converts a slice of domain.ExchangeOrder to []OrderResponse.
func ToOrderResponses(orders []domain.ExchangeOrder) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses
}

// ToOrderEventResponses converts a slice of domain.OrderEvent to []OrderEventResponse.
func ToOrderEventResponses(events []domain.OrderEvent) []OrderEventResponse {
	responses := make([]OrderEventResponse, len(events))
	for i, ev := range events {
		responses[i] = OrderEventResponse{
			ID:          ev.ID,
			OrderID:     ev.OrderID,
			EventType:   string(ev.EventType),
			EventData:   ev.EventData,
			TriggeredBy: ev.TriggeredBy,
			Notes:       ev.Notes,
			CreatedAt:   ev.CreatedAt,
		}
	}
	return responses
}
