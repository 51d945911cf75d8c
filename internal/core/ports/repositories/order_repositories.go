package repositories

import (
	"context"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
)

// OrderReader defines read operations for exchange orders
type OrderReader interface {
	// FindOrderByID retrieves a specific order by its unique identifier.
	FindOrderByID(ctx context.Context, orderID string) (*domain.ExchangeOrder, error)

	// FindOrderByQuoteID retrieves the order created from a quote lock.
	FindOrderByQuoteID(ctx context.Context, quoteID string) (*domain.ExchangeOrder, error)

	// ListOrdersByMerchant retrieves a page of a merchant's orders, newest first, using token-based pagination.
	// It returns the orders, a token for the next page, and an error.
	ListOrdersByMerchant(ctx context.Context, merchantID string, limit int, nextToken *string) ([]domain.ExchangeOrder, *string, error)
}

// OrderEventReader defines read operations for the order audit trail
type OrderEventReader interface {
	// ListOrderEvents returns the events of an order in the order they were appended.
	ListOrderEvents(ctx context.Context, orderID string) ([]domain.OrderEvent, error)
}

// OrderWriter defines write operations for exchange orders. Each write appends its event atomically.
type OrderWriter interface {
	// SaveOrder inserts a new order together with its creation event.
	SaveOrder(ctx context.Context, order domain.ExchangeOrder, event domain.OrderEvent) error

	// UpdateOrderStatus stores order only if the persisted status still equals expected, and appends event.
	// Returns apperrors.ErrStatusConflict when the status moved underneath the caller.
	UpdateOrderStatus(ctx context.Context, order domain.ExchangeOrder, expected domain.OrderStatus, event domain.OrderEvent) error
}

// OrderRepositoryFacade combines all order-related repository interfaces
type OrderRepositoryFacade interface {
	OrderReader
	OrderEventReader
	OrderWriter
}
