package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
)

// --- Mock RateRepository ---
type MockRateRepository struct {
	mock.Mock
}

var _ portsrepo.RateRepositoryFacade = (*MockRateRepository)(nil)

func (m *MockRateRepository) FindLatestRate(ctx context.Context, channelID string, pair domain.CurrencyPair) (*domain.RawRate, error) {
	args := m.Called(ctx, channelID, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RawRate), args.Error(1)
}

func (m *MockRateRepository) SaveRate(ctx context.Context, rate domain.RawRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

// --- Mock MarkupRuleReader ---
type MockMarkupRepository struct {
	mock.Mock
}

var _ portsrepo.MarkupRuleReader = (*MockMarkupRepository)(nil)

func (m *MockMarkupRepository) ListPlatformMarkupRules(ctx context.Context, channelID string, pair domain.CurrencyPair) ([]domain.PlatformMarkupRule, error) {
	args := m.Called(ctx, channelID, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PlatformMarkupRule), args.Error(1)
}

func (m *MockMarkupRepository) ListMerchantRateRules(ctx context.Context, merchantID string, pair domain.CurrencyPair) ([]domain.MerchantRateRule, error) {
	args := m.Called(ctx, merchantID, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MerchantRateRule), args.Error(1)
}

// --- Mock QuoteLockRepository ---
type MockQuoteLockRepository struct {
	mock.Mock
}

var _ portsrepo.QuoteLockRepositoryFacade = (*MockQuoteLockRepository)(nil)

func (m *MockQuoteLockRepository) FindQuoteLockByID(ctx context.Context, quoteID string) (*domain.QuoteLock, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteLock), args.Error(1)
}

func (m *MockQuoteLockRepository) SaveQuoteLock(ctx context.Context, lock domain.QuoteLock) error {
	args := m.Called(ctx, lock)
	return args.Error(0)
}

func (m *MockQuoteLockRepository) ConsumeQuoteLock(ctx context.Context, quoteID, orderID string, usedAt time.Time) (*domain.QuoteLock, error) {
	args := m.Called(ctx, quoteID, orderID, usedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteLock), args.Error(1)
}

func (m *MockQuoteLockRepository) ExpireQuoteLock(ctx context.Context, quoteID string, now time.Time) error {
	args := m.Called(ctx, quoteID, now)
	return args.Error(0)
}

func (m *MockQuoteLockRepository) CancelQuoteLock(ctx context.Context, quoteID string, now time.Time) error {
	args := m.Called(ctx, quoteID, now)
	return args.Error(0)
}

func (m *MockQuoteLockRepository) ExpireStaleQuoteLocks(ctx context.Context, now time.Time, limit int) ([]string, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Mock OrderRepository ---
type MockOrderRepository struct {
	mock.Mock
}

var _ portsrepo.OrderRepositoryFacade = (*MockOrderRepository)(nil)

func (m *MockOrderRepository) FindOrderByID(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeOrder), args.Error(1)
}

func (m *MockOrderRepository) FindOrderByQuoteID(ctx context.Context, quoteID string) (*domain.ExchangeOrder, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeOrder), args.Error(1)
}

func (m *MockOrderRepository) ListOrdersByMerchant(ctx context.Context, merchantID string, limit int, nextToken *string) ([]domain.ExchangeOrder, *string, error) {
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

func (m *MockOrderRepository) ListOrderEvents(ctx context.Context, orderID string) ([]domain.OrderEvent, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderEvent), args.Error(1)
}

func (m *MockOrderRepository) SaveOrder(ctx context.Context, order domain.ExchangeOrder, event domain.OrderEvent) error {
	args := m.Called(ctx, order, event)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateOrderStatus(ctx context.Context, order domain.ExchangeOrder, expected domain.OrderStatus, event domain.OrderEvent) error {
	args := m.Called(ctx, order, expected, event)
	return args.Error(0)
}

// --- Mock ChannelGateway ---
type MockChannelGateway struct {
	mock.Mock
}

var _ portssvc.ChannelGateway = (*MockChannelGateway)(nil)

func (m *MockChannelGateway) FetchRate(ctx context.Context, channelID string, pair domain.CurrencyPair) (*domain.RawRate, error) {
	args := m.Called(ctx, channelID, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RawRate), args.Error(1)
}

func (m *MockChannelGateway) SubmitInquiry(ctx context.Context, channelID string, order domain.ExchangeOrder) (*domain.ChannelInquiry, error) {
	args := m.Called(ctx, channelID, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChannelInquiry), args.Error(1)
}

func (m *MockChannelGateway) SubmitExecution(ctx context.Context, channelID string, order domain.ExchangeOrder, inquiry domain.ChannelInquiry) (*domain.ChannelExecution, error) {
	args := m.Called(ctx, channelID, order, inquiry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChannelExecution), args.Error(1)
}

// --- Mock EventPublisher ---
type MockEventPublisher struct {
	mock.Mock
}

var _ portssvc.EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) Publish(ctx context.Context, routingKey string, msg domain.EventMessage) error {
	args := m.Called(ctx, routingKey, msg)
	return args.Error(0)
}

// recordingSink captures enqueued events in order.
type recordingSink struct {
	mu     sync.Mutex
	keys   []string
	events []domain.EventMessage
}

func (r *recordingSink) Enqueue(_ context.Context, routingKey string, msg domain.EventMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, routingKey)
	r.events = append(r.events, msg)
}

func (r *recordingSink) keysFor(orderID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for i, ev := range r.events {
		if ev.OrderID == orderID {
			out = append(out, r.keys[i])
		}
	}
	return out
}

// fakeClock is a settable clock safe for concurrent use.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
