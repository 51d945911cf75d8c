package services

import (
	"context"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
)

// OrderReaderSvc defines read operations for exchange orders
type OrderReaderSvc interface {
	// GetOrder retrieves an order by ID.
	GetOrder(ctx context.Context, orderID string) (*domain.ExchangeOrder, error)

	// ListOrderEvents returns the audit trail of an order, oldest first.
	ListOrderEvents(ctx context.Context, orderID string) ([]domain.OrderEvent, error)

	// ListOrdersByMerchant returns a page of a merchant's orders and the token for the next page.
	ListOrdersByMerchant(ctx context.Context, merchantID string, limit int, nextToken *string) ([]domain.ExchangeOrder, *string, error)
}

// OrderWriterSvc drives the order state machine
type OrderWriterSvc interface {
	// CreateOrder consumes the quote lock and inserts the order and its first event as one unit.
	CreateOrder(ctx context.Context, quoteID string) (*domain.ExchangeOrder, error)

	// Transition moves an order along one edge of the state machine.
	Transition(ctx context.Context, orderID string, target domain.OrderStatus, payload domain.TransitionPayload) (*domain.ExchangeOrder, error)

	// ExecuteOrder runs inquiry and execution against the order's channel, ending in FX_SUCCESS or FX_FAILED.
	ExecuteOrder(ctx context.Context, orderID string) (*domain.ExchangeOrder, error)

	// SettleOrder records the settlement outcome of an executed order.
	SettleOrder(ctx context.Context, orderID string, success bool, reason string) (*domain.ExchangeOrder, error)

	// CloseOrder closes a completed order.
	CloseOrder(ctx context.Context, orderID string) (*domain.ExchangeOrder, error)

	// CancelOrder cancels an order that has not reached execution.
	CancelOrder(ctx context.Context, orderID, reason string) (*domain.ExchangeOrder, error)
}

// OrderSvcFacade combines all order-related service interfaces
type OrderSvcFacade interface {
	OrderReaderSvc
	OrderWriterSvc
}
