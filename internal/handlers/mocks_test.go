package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/dto"
)

// --- Mock RateCalculator ---
type MockRateCalculator struct {
	mock.Mock
}

var _ portssvc.RateCalculatorSvc = (*MockRateCalculator)(nil)

func (m *MockRateCalculator) ComputeQuote(ctx context.Context, req dto.ComputeQuoteRequest) (*domain.RateCalculationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateCalculationResult), args.Error(1)
}

// --- Mock QuoteLockService ---
type MockQuoteLockService struct {
	mock.Mock
}

var _ portssvc.QuoteLockSvcFacade = (*MockQuoteLockService)(nil)

func (m *MockQuoteLockService) GetLock(ctx context.Context, quoteID string) (*domain.QuoteLock, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteLock), args.Error(1)
}

func (m *MockQuoteLockService) CreateLock(ctx context.Context, req dto.CreateQuoteLockRequest) (*domain.QuoteLock, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteLock), args.Error(1)
}

func (m *MockQuoteLockService) ConsumeLock(ctx context.Context, quoteID, orderID string) (*domain.QuoteLock, error) {
	args := m.Called(ctx, quoteID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteLock), args.Error(1)
}

func (m *MockQuoteLockService) CancelLock(ctx context.Context, quoteID string) (*domain.QuoteLock, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteLock), args.Error(1)
}

func (m *MockQuoteLockService) ExpireStaleLocks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// --- Mock OrderService ---
type MockOrderService struct {
	mock.Mock
}

var _ portssvc.OrderSvcFacade = (*MockOrderService)(nil)

func (m *MockOrderService) order(args mock.Arguments) (*domain.ExchangeOrder, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeOrder), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *MockOrderService) ListOrderEvents(ctx context.Context, orderID string) ([]domain.OrderEvent, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderEvent), args.Error(1)
}

func (m *MockOrderService) ListOrdersByMerchant(ctx context.Context, merchantID string, limit int, nextToken *string) ([]domain.ExchangeOrder, *string, error) {
	args := m.Called(ctx, merchantID, limit, nextToken)
	var orders []domain.ExchangeOrder
	if args.Get(0) != nil {
		orders = args.Get(0).([]domain.ExchangeOrder)
	}
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	return orders, next, args.Error(2)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, quoteID string) (*domain.ExchangeOrder, error) {
	return m.order(m.Called(ctx, quoteID))
}

func (m *MockOrderService) Transition(ctx context.Context, orderID string, target domain.OrderStatus, payload domain.TransitionPayload) (*domain.ExchangeOrder, error) {
	return m.order(m.Called(ctx, orderID, target, payload))
}

func (m *MockOrderService) ExecuteOrder(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *MockOrderService) SettleOrder(ctx context.Context, orderID string, success bool, reason string) (*domain.ExchangeOrder, error) {
	return m.order(m.Called(ctx, orderID, success, reason))
}

func (m *MockOrderService) CloseOrder(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *MockOrderService) CancelOrder(ctx context.Context, orderID, reason string) (*domain.ExchangeOrder, error) {
	return m.order(m.Called(ctx, orderID, reason))
}
