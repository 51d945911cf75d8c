package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	"github.com/SscSPs/fx_quote_engine/internal/core/services"
	"github.com/SscSPs/fx_quote_engine/internal/repositories/memory"
)

func createOrder(t *testing.T, e *engine) *domain.ExchangeOrder {
	t.Helper()
	lock, err := e.locks.CreateLock(context.Background(), sellUSD("1000"))
	require.NoError(t, err)
	order, err := e.orders.CreateOrder(context.Background(), lock.QuoteID)
	require.NoError(t, err)
	return order
}

func (e *engine) expectFill(buy, fee string) {
	e.gateway.On("SubmitInquiry", mock.Anything, domain.ChannelPHP, mock.Anything).Return(&domain.ChannelInquiry{
		InquiryID: "inq-1", ChannelID: domain.ChannelPHP, Rate: d("7.8065"), ValidUntil: t0.Add(time.Minute),
	}, nil).Once()
	e.gateway.On("SubmitExecution", mock.Anything, domain.ChannelPHP, mock.Anything, mock.Anything).Return(&domain.ChannelExecution{
		ChannelOrderID:   "ch-1",
		ActualSellAmount: d("1000.00"),
		ActualBuyAmount:  d(buy),
		ActualRate:       d("7.8104"),
		Fee:              d(fee),
		ExecutedAt:       t0,
	}, nil).Once()
}

func TestOrder_CreateConsumesLock(t *testing.T) {
	e := newEngine(t, 0)
	ctx := context.Background()
	lock, err := e.locks.CreateLock(ctx, sellUSD("1000"))
	require.NoError(t, err)

	order, err := e.orders.CreateOrder(ctx, lock.QuoteID)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderCreated, order.OrderStatus)
	assert.Equal(t, lock.QuoteID, order.QuoteID)
	assert.Equal(t, "m-1", order.MerchantID)
	assert.Equal(t, "USD", order.PlannedSellCurrency)
	assert.Equal(t, "7807.00", order.PlannedBuyAmount.StringFixed(2))
	assert.True(t, order.CustomerRate.Equal(lock.Rate))

	used, err := e.locks.GetLock(ctx, lock.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteUsed, used.Status)
	require.NotNil(t, used.OrderID)
	assert.Equal(t, order.ID, *used.OrderID)

	events, err := e.orders.ListOrderEvents(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventOrderCreated, events[0].EventType)
	assert.Equal(t, "quote_locked", events[0].EventData["previousStatus"])
	assert.Equal(t, "order_created", events[0].EventData["newStatus"])
	assert.Equal(t, []string{"order.created"}, e.sink.keysFor(order.ID))

	_, err = e.orders.CreateOrder(ctx, lock.QuoteID)
	require.ErrorIs(t, err, apperrors.ErrAlreadyConsumedOrExpired)
	assert.Contains(t, err.Error(), "used")
}

func TestOrder_CreateFromExpiredLock(t *testing.T) {
	e := newEngine(t, 0)
	ctx := context.Background()
	lock, err := e.locks.CreateLock(ctx, sellUSD("1000"))
	require.NoError(t, err)

	e.clock.Advance(31 * time.Second)
	_, err = e.orders.CreateOrder(ctx, lock.QuoteID)
	require.ErrorIs(t, err, apperrors.ErrExpired)

	// The transaction rolled back but the expiry was written outside it.
	stored, err := e.locks.GetLock(ctx, lock.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteExpired, stored.Status)

	_, err = e.store.FindOrderByQuoteID(ctx, lock.QuoteID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = e.orders.CreateOrder(ctx, lock.QuoteID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyConsumedOrExpired)
}

func TestOrder_ConcurrentCreateHasOneWinner(t *testing.T) {
	e := newEngine(t, 0)
	ctx := context.Background()
	lock, err := e.locks.CreateLock(ctx, sellUSD("1000"))
	require.NoError(t, err)

	const callers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			order, err := e.orders.CreateOrder(ctx, lock.QuoteID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, order.ID)
			case errors.Is(err, apperrors.ErrAlreadyConsumedOrExpired):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, callers-1, conflicts)

	order, err := e.store.FindOrderByQuoteID(ctx, lock.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], order.ID)

	orders, _, err := e.orders.ListOrdersByMerchant(ctx, "m-1", 100, nil)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrder_InvalidTransitionIsRejectedAndLogged(t *testing.T) {
	e := newEngine(t, 0)
	order := createOrder(t, e)
	ctx, logs := capturingCtx()

	_, err := e.orders.Transition(ctx, order.ID, domain.SettlementProcessing, domain.TransitionPayload{})
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Contains(t, logs.String(), "Rejected order status transition")
	assert.Contains(t, logs.String(), `"level":"WARN"`)

	stored, err := e.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCreated, stored.OrderStatus)

	events, err := e.orders.ListOrderEvents(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1, "rejected transitions leave no audit row")
}

func TestOrder_TransitionUnknownStatus(t *testing.T) {
	e := newEngine(t, 0)
	order := createOrder(t, e)

	_, err := e.orders.Transition(context.Background(), order.ID, "teleported", domain.TransitionPayload{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestOrder_TransitionUnknownOrder(t *testing.T) {
	e := newEngine(t, 0)
	_, err := e.orders.Transition(context.Background(), "missing", domain.FxInquiring, domain.TransitionPayload{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrder_ExecuteSettleClose(t *testing.T) {
	e := newEngine(t, 0)
	ctx := context.Background()
	order := createOrder(t, e)
	e.expectFill("7810.40", "1.25")

	executed, err := e.orders.ExecuteOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FxSuccess, executed.OrderStatus)
	require.NotNil(t, executed.ChannelID)
	assert.Equal(t, domain.ChannelPHP, *executed.ChannelID)
	assert.Equal(t, "inq-1", *executed.ChannelInquiryID)
	assert.Equal(t, "ch-1", *executed.ChannelOrderID)
	assert.Equal(t, "7810.40", executed.ActualBuyAmount.StringFixed(2))
	assert.Equal(t, "1.25", executed.CostAmount.StringFixed(2))
	assert.Equal(t, "2.15", executed.ProfitAmount.StringFixed(2))
	require.NotNil(t, executed.ExecutedAt)

	settled, err := e.orders.SettleOrder(ctx, order.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, settled.OrderStatus)
	assert.NotNil(t, settled.CompletedAt)

	closed, err := e.orders.CloseOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderClosed, closed.OrderStatus)

	assert.Equal(t, []string{
		"order.created",
		"order.fx.inquiring",
		"order.fx.executing",
		"order.fx.success",
		"order.settlement.processing",
		"order.settlement.completed",
		"order.completed",
		"order.closed",
	}, e.sink.keysFor(order.ID))

	events, err := e.orders.ListOrderEvents(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 8)
	for i := 1; i < len(events); i++ {
		assert.Equal(t, events[i-1].EventData["newStatus"], events[i].EventData["previousStatus"], "event %d", i)
	}
	fill := events[3]
	assert.Equal(t, domain.EventFxExecutionCompleted, fill.EventType)
	assert.Equal(t, "1000", fill.EventData["actualSellAmount"])
	assert.Equal(t, "7810.4", fill.EventData["actualBuyAmount"])
	assert.Equal(t, "1.25", fill.EventData["costAmount"])
	assert.Equal(t, "2.15", fill.EventData["profitAmount"])

	_, err = e.orders.CancelOrder(ctx, order.ID, "too late")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyTerminal)
	e.gateway.AssertExpectations(t)
}

func TestOrder_InquiryFailureEndsInFxFailed(t *testing.T) {
	e := newEngine(t, 0)
	order := createOrder(t, e)
	e.gateway.On("SubmitInquiry", mock.Anything, domain.ChannelPHP, mock.Anything).
		Return(nil, errors.New("connection refused")).Once()

	failed, err := e.orders.ExecuteOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FxFailed, failed.OrderStatus)
	require.NotNil(t, failed.FailureReason)
	assert.Contains(t, *failed.FailureReason, "connection refused")
	assert.True(t, failed.OrderStatus.IsTerminal())

	e.gateway.AssertNotCalled(t, "SubmitExecution", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{"order.created", "order.fx.inquiring", "order.fx.failed"}, e.sink.keysFor(order.ID))
}

func TestOrder_EmptyChannelResponseEndsInFxFailed(t *testing.T) {
	t.Run("inquiry", func(t *testing.T) {
		e := newEngine(t, 0)
		order := createOrder(t, e)
		e.gateway.On("SubmitInquiry", mock.Anything, domain.ChannelPHP, mock.Anything).Return(nil, nil).Once()

		failed, err := e.orders.ExecuteOrder(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.FxFailed, failed.OrderStatus)
		require.NotNil(t, failed.FailureReason)
		assert.Contains(t, *failed.FailureReason, "empty response")
		e.gateway.AssertNotCalled(t, "SubmitExecution", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("execution", func(t *testing.T) {
		e := newEngine(t, 0)
		order := createOrder(t, e)
		e.gateway.On("SubmitInquiry", mock.Anything, domain.ChannelPHP, mock.Anything).Return(&domain.ChannelInquiry{
			InquiryID: "inq-1", ChannelID: domain.ChannelPHP, Rate: d("7.8065"), ValidUntil: t0.Add(time.Minute),
		}, nil).Once()
		e.gateway.On("SubmitExecution", mock.Anything, domain.ChannelPHP, mock.Anything, mock.Anything).Return(nil, nil).Once()

		failed, err := e.orders.ExecuteOrder(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.FxFailed, failed.OrderStatus)
		assert.Equal(t, []string{"order.created", "order.fx.inquiring", "order.fx.executing", "order.fx.failed"}, e.sink.keysFor(order.ID))
	})
}

// stalledTxManager never gets a transaction, like a pool with no free connections.
type stalledTxManager struct{}

func (stalledTxManager) WithinTx(ctx context.Context, _ func(context.Context) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledTxManager) WithoutTx(ctx context.Context) context.Context { return ctx }

func TestOrder_CreateIsBoundedWhileWaitingForTx(t *testing.T) {
	svc := services.NewOrderService(stalledTxManager{}, memory.NewStore(), nil, nil, nil, 0,
		services.WithStoreTimeout(50*time.Millisecond))

	done := make(chan error, 1)
	go func() {
		_, err := svc.CreateOrder(context.Background(), "q-1")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, apperrors.ErrTimeout)
		assert.True(t, apperrors.IsRetryable(err))
		assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	case <-time.After(time.Second):
		t.Fatal("CreateOrder did not honour the store timeout")
	}
}

func TestOrder_ExecutionTimeoutEndsInFxFailed(t *testing.T) {
	e := newEngine(t, 20*time.Millisecond)
	order := createOrder(t, e)
	e.gateway.On("SubmitInquiry", mock.Anything, domain.ChannelPHP, mock.Anything).Return(&domain.ChannelInquiry{
		InquiryID: "inq-1", ChannelID: domain.ChannelPHP, Rate: d("7.8065"), ValidUntil: t0.Add(time.Minute),
	}, nil).Once()
	e.gateway.On("SubmitExecution", mock.Anything, domain.ChannelPHP, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded).Once()

	failed, err := e.orders.ExecuteOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FxFailed, failed.OrderStatus)
	require.NotNil(t, failed.FailureReason)
	assert.Contains(t, *failed.FailureReason, apperrors.ErrTimeout.Error())
	assert.Equal(t, "inq-1", *failed.ChannelInquiryID)
}

func TestOrder_ExecuteCancelledOrderIsTerminal(t *testing.T) {
	e := newEngine(t, 0)
	ctx := context.Background()
	order := createOrder(t, e)

	cancelled, err := e.orders.CancelOrder(ctx, order.ID, "customer changed their mind")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, cancelled.OrderStatus)
	assert.Equal(t, "customer changed their mind", *cancelled.FailureReason)

	_, err = e.orders.ExecuteOrder(ctx, order.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyTerminal)

	_, err = e.orders.CancelOrder(ctx, order.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyTerminal)
	e.gateway.AssertNotCalled(t, "SubmitInquiry", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrder_SettlementFailure(t *testing.T) {
	e := newEngine(t, 0)
	ctx := context.Background()
	order := createOrder(t, e)
	e.expectFill("7807.00", "0")
	_, err := e.orders.ExecuteOrder(ctx, order.ID)
	require.NoError(t, err)

	failed, err := e.orders.SettleOrder(ctx, order.ID, false, "beneficiary bank rejected")
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementFailed, failed.OrderStatus)
	assert.Equal(t, "beneficiary bank rejected", *failed.FailureReason)

	_, err = e.orders.SettleOrder(ctx, order.ID, true, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestOrder_SettleBeforeExecution(t *testing.T) {
	e := newEngine(t, 0)
	order := createOrder(t, e)

	_, err := e.orders.SettleOrder(context.Background(), order.ID, true, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestOrder_StoreTimeoutIsNotNotFound(t *testing.T) {
	repo := new(MockOrderRepository)
	repo.On("FindOrderByID", mock.Anything, "o-1").Return(nil, context.DeadlineExceeded).Once()

	svc := services.NewOrderService(memory.NewStore(), repo, nil, nil, nil, 0)

	_, err := svc.GetOrder(context.Background(), "o-1")
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
	repo.AssertExpectations(t)
}

func TestOrder_TransitionRetriesOnConflict(t *testing.T) {
	repo := new(MockOrderRepository)
	created := &domain.ExchangeOrder{ID: "o-1", MerchantID: "m-1", QuoteID: "q-1", OrderStatus: domain.OrderCreated}
	cancelled := &domain.ExchangeOrder{ID: "o-1", MerchantID: "m-1", QuoteID: "q-1", OrderStatus: domain.OrderCancelled}
	repo.On("FindOrderByID", mock.Anything, "o-1").Return(created, nil).Once()
	repo.On("UpdateOrderStatus", mock.Anything, mock.Anything, domain.OrderCreated, mock.Anything).
		Return(apperrors.ErrStatusConflict).Once()
	repo.On("FindOrderByID", mock.Anything, "o-1").Return(cancelled, nil).Once()

	svc := services.NewOrderService(memory.NewStore(), repo, nil, nil, nil, 0)

	_, err := svc.Transition(context.Background(), "o-1", domain.FxInquiring, domain.TransitionPayload{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	repo.AssertExpectations(t)
}

func TestOrder_ListByMerchant(t *testing.T) {
	e := newEngine(t, 0)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, createOrder(t, e).ID)
		e.clock.Advance(time.Second)
	}

	page, next, err := e.orders.ListOrdersByMerchant(ctx, "m-1", 3, nil)
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.NotNil(t, next)
	assert.Equal(t, ids[4], page[0].ID, "newest first")

	rest, next, err := e.orders.ListOrdersByMerchant(ctx, "m-1", 3, next)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
	assert.Nil(t, next)
	assert.Equal(t, ids[0], rest[1].ID)

	_, _, err = e.orders.ListOrdersByMerchant(ctx, "", 3, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// Any sequence of requested targets leaves the order in the last accepted status, with one
// audit row and one event per accepted transition.
func TestProperty_TransitionsKeepAuditTrailInStep(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := newEngine(t, 0)
		ctx := context.Background()
		lock, err := e.locks.CreateLock(ctx, sellUSD("1000"))
		if err != nil {
			rt.Fatalf("create lock: %v", err)
		}
		order, err := e.orders.CreateOrder(ctx, lock.QuoteID)
		if err != nil {
			rt.Fatalf("create order: %v", err)
		}

		status := order.OrderStatus
		accepted := 1
		targets := rapid.SliceOfN(rapid.SampledFrom(domain.AllOrderStatuses), 1, 12).Draw(rt, "targets")
		for i, target := range targets {
			next, err := e.orders.Transition(ctx, order.ID, target, domain.TransitionPayload{Notes: fmt.Sprintf("step %d", i)})
			if domain.CanTransition(status, target) {
				if err != nil {
					rt.Fatalf("%s -> %s rejected: %v", status, target, err)
				}
				if next.OrderStatus != target {
					rt.Fatalf("got status %s, want %s", next.OrderStatus, target)
				}
				status = target
				accepted++
				continue
			}
			if !errors.Is(err, apperrors.ErrInvalidTransition) {
				rt.Fatalf("%s -> %s: want ErrInvalidTransition, got %v", status, target, err)
			}
		}

		stored, err := e.orders.GetOrder(ctx, order.ID)
		if err != nil {
			rt.Fatalf("get order: %v", err)
		}
		if stored.OrderStatus != status {
			rt.Fatalf("stored status %s, want %s", stored.OrderStatus, status)
		}
		events, err := e.orders.ListOrderEvents(ctx, order.ID)
		if err != nil {
			rt.Fatalf("list events: %v", err)
		}
		if len(events) != accepted {
			rt.Fatalf("%d audit rows for %d transitions", len(events), accepted)
		}
		if keys := e.sink.keysFor(order.ID); len(keys) != accepted {
			rt.Fatalf("%d published events for %d transitions: %s", len(keys), accepted, strings.Join(keys, ","))
		}
	})
}
