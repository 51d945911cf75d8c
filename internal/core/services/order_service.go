package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/metrics"
	"github.com/SscSPs/fx_quote_engine/internal/middleware"
)

const (
	// DefaultChannelTimeout bounds a single inquiry or execution call.
	DefaultChannelTimeout = 5 * time.Second

	maxOrderCASAttempts = 3
	orderLockStripes    = 64

	defaultListLimit = 20
	maxListLimit     = 100
)

var errEmptyChannelResponse = errors.New("channel returned an empty response")

type orderService struct {
	BaseService
	txManager      portsrepo.TransactionManager
	orderRepo      portsrepo.OrderRepositoryFacade
	quoteLocks     portssvc.QuoteLockSvcFacade
	gateway        portssvc.ChannelGateway
	events         EventSink
	channelTimeout time.Duration

	// stripes serialise CAS and enqueue per order inside this process so events leave in
	// transition order. Atomicity itself comes from the store's conditional update.
	stripes [orderLockStripes]sync.Mutex
}

// NewOrderService creates the order state machine.
func NewOrderService(
	txManager portsrepo.TransactionManager,
	orderRepo portsrepo.OrderRepositoryFacade,
	quoteLocks portssvc.QuoteLockSvcFacade,
	gateway portssvc.ChannelGateway,
	events EventSink,
	channelTimeout time.Duration,
	opts ...BaseOption,
) portssvc.OrderSvcFacade {
	if channelTimeout <= 0 {
		channelTimeout = DefaultChannelTimeout
	}
	return &orderService{
		BaseService:    newBaseService(opts...),
		txManager:      txManager,
		orderRepo:      orderRepo,
		quoteLocks:     quoteLocks,
		gateway:        gateway,
		events:         events,
		channelTimeout: channelTimeout,
	}
}

var _ portssvc.OrderSvcFacade = (*orderService)(nil)

func (s *orderService) lockOrder(orderID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderID))
	mu := &s.stripes[h.Sum32()%orderLockStripes]
	mu.Lock()
	return mu.Unlock
}

// triggeredBy names the origin of a transition for the audit trail.
func triggeredBy(ctx context.Context) string {
	if id, ok := middleware.GetRequestIDFromCtx(ctx); ok {
		return "request:" + id
	}
	return "system"
}

func (s *orderService) publish(ctx context.Context, order domain.ExchangeOrder, event domain.OrderEvent) {
	if s.events == nil {
		return
	}
	s.events.Enqueue(ctx, domain.RoutingKeyFor(order.OrderStatus), domain.NewEventMessage(event, order.MerchantID))
}

// CreateOrder implements portssvc.OrderWriterSvc
func (s *orderService) CreateOrder(ctx context.Context, quoteID string) (*domain.ExchangeOrder, error) {
	orderID := uuid.NewString()
	unlock := s.lockOrder(orderID)
	defer unlock()

	// The deadline covers waiting for the transaction itself, not only the calls inside it.
	unitCtx, cancelUnit := s.withStoreTimeout(ctx)
	defer cancelUnit()

	var order domain.ExchangeOrder
	var event domain.OrderEvent
	err := s.txManager.WithinTx(unitCtx, func(txCtx context.Context) error {
		lock, err := s.quoteLocks.ConsumeLock(txCtx, quoteID, orderID)
		if err != nil {
			return err
		}

		now := s.now()
		order = domain.NewOrderFromLock(orderID, *lock, now)
		channelID := lock.RateDetails.ChannelID
		event = domain.NewTransitionEvent(uuid.NewString(), order, domain.QuoteLockedStatus, domain.TransitionPayload{
			TriggeredBy: triggeredBy(ctx),
			Data: map[string]any{
				"rate":      lock.Rate.String(),
				"channelId": channelID,
			},
		}, now)

		storeCtx, cancel := s.withStoreTimeout(txCtx)
		defer cancel()
		if err := s.orderRepo.SaveOrder(storeCtx, order, event); err != nil {
			return storeErr("failed to save order", err)
		}
		return nil
	})
	if errors.Is(err, context.DeadlineExceeded) {
		err = storeErr("failed to create order", err)
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to create order from quote", slog.String("quote_id", quoteID))
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(string(domain.OrderCreated)).Inc()
	s.LogInfo(ctx, "Order created", slog.String("order_id", orderID), slog.String("quote_id", quoteID))
	s.publish(ctx, order, event)
	return &order, nil
}

// Transition implements portssvc.OrderWriterSvc
func (s *orderService) Transition(ctx context.Context, orderID string, target domain.OrderStatus, payload domain.TransitionPayload) (*domain.ExchangeOrder, error) {
	return s.transition(ctx, orderID, target, payload, nil)
}

// transition moves an order along one edge. guard, when set, may reject the current order
// before the edge is checked.
func (s *orderService) transition(
	ctx context.Context,
	orderID string,
	target domain.OrderStatus,
	payload domain.TransitionPayload,
	guard func(domain.ExchangeOrder) error,
) (*domain.ExchangeOrder, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown order status %q", apperrors.ErrValidation, target)
	}
	if payload.TriggeredBy == "" {
		payload.TriggeredBy = triggeredBy(ctx)
	}

	unlock := s.lockOrder(orderID)
	defer unlock()

	for attempt := 0; attempt < maxOrderCASAttempts; attempt++ {
		current, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if guard != nil {
			if err := guard(*current); err != nil {
				return nil, err
			}
		}

		from := current.OrderStatus
		if !domain.CanTransition(from, target) {
			metrics.InvalidTransitions.WithLabelValues(string(from), string(target)).Inc()
			s.LogWarn(ctx, "Rejected order status transition",
				slog.String("order_id", orderID),
				slog.String("from", string(from)),
				slog.String("to", string(target)),
				slog.String("triggered_by", payload.TriggeredBy))
			return nil, fmt.Errorf("%w: %s -> %s for order %s", apperrors.ErrInvalidTransition, from, target, orderID)
		}

		now := s.now()
		next := *current
		next.Apply(target, payload, now)
		event := domain.NewTransitionEvent(uuid.NewString(), next, from, payload, now)

		storeCtx, cancel := s.withStoreTimeout(ctx)
		err = s.orderRepo.UpdateOrderStatus(storeCtx, next, from, event)
		cancel()
		if err == nil {
			metrics.OrderTransitions.WithLabelValues(string(target)).Inc()
			s.LogInfo(ctx, "Order status changed",
				slog.String("order_id", orderID),
				slog.String("from", string(from)),
				slog.String("to", string(target)))
			s.publish(ctx, next, event)
			return &next, nil
		}
		if !errors.Is(err, apperrors.ErrStatusConflict) {
			return nil, storeErr("failed to update order status", err)
		}
		// Another process moved the order; re-read and re-validate the edge.
	}
	return nil, fmt.Errorf("%w: order %s kept changing during transition to %s", apperrors.ErrTimeout, orderID, target)
}

// CancelOrder implements portssvc.OrderWriterSvc
func (s *orderService) CancelOrder(ctx context.Context, orderID, reason string) (*domain.ExchangeOrder, error) {
	payload := domain.TransitionPayload{Notes: reason}
	if reason != "" {
		payload.FailureReason = &reason
	}
	return s.transition(ctx, orderID, domain.OrderCancelled, payload, func(o domain.ExchangeOrder) error {
		if !o.OrderStatus.IsCancellable() {
			return fmt.Errorf("%w: order %s is %s", apperrors.ErrAlreadyTerminal, orderID, o.OrderStatus)
		}
		return nil
	})
}

// ExecuteOrder implements portssvc.OrderWriterSvc.
// Channel transport failures end the order in FX_FAILED and are not returned as errors.
func (s *orderService) ExecuteOrder(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lock, err := s.quoteLocks.GetLock(ctx, order.QuoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quote lock for order %s: %w", orderID, err)
	}
	channelID := lock.RateDetails.ChannelID

	inquiring, err := s.transition(ctx, orderID, domain.FxInquiring, domain.TransitionPayload{ChannelID: &channelID}, nil)
	if err != nil {
		return nil, s.preempted(ctx, orderID, err)
	}

	var inquiry *domain.ChannelInquiry
	err = s.callChannel(ctx, channelID, "inquiry", func(callCtx context.Context) error {
		var callErr error
		inquiry, callErr = s.gateway.SubmitInquiry(callCtx, channelID, *inquiring)
		if callErr == nil && inquiry == nil {
			callErr = errEmptyChannelResponse
		}
		return callErr
	})
	if err != nil {
		return s.failExecution(ctx, orderID, channelID, "inquiry", err)
	}

	executing, err := s.transition(ctx, orderID, domain.FxExecuting, domain.TransitionPayload{
		ChannelInquiryID: &inquiry.InquiryID,
		Data: map[string]any{
			"inquiryRate":       inquiry.Rate.String(),
			"inquiryValidUntil": inquiry.ValidUntil,
		},
	}, nil)
	if err != nil {
		return nil, s.preempted(ctx, orderID, err)
	}

	var execution *domain.ChannelExecution
	err = s.callChannel(ctx, channelID, "execution", func(callCtx context.Context) error {
		var callErr error
		execution, callErr = s.gateway.SubmitExecution(callCtx, channelID, *executing, *inquiry)
		if callErr == nil && execution == nil {
			callErr = errEmptyChannelResponse
		}
		return callErr
	})
	if err != nil {
		return s.failExecution(ctx, orderID, channelID, "execution", err)
	}

	cost := domain.RoundAmount(execution.Fee, executing.PlannedBuyCurrency)
	profit := execution.Profit(executing.PlannedBuyAmount, executing.PlannedBuyCurrency)
	return s.transition(ctx, orderID, domain.FxSuccess, domain.TransitionPayload{
		ChannelOrderID:   &execution.ChannelOrderID,
		ActualSellAmount: &execution.ActualSellAmount,
		ActualBuyAmount:  &execution.ActualBuyAmount,
		ActualRate:       &execution.ActualRate,
		CostAmount:       &cost,
		ProfitAmount:     &profit,
	}, nil)
}

func (s *orderService) callChannel(ctx context.Context, channelID, call string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.channelTimeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	metrics.ChannelCallLatency.WithLabelValues(channelID, call).Observe(time.Since(start).Seconds())
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
	}
	return err
}

// failExecution records a channel failure as FX_FAILED. It runs even if the caller's ctx
// was cancelled, otherwise the order would be stranded mid-execution.
func (s *orderService) failExecution(ctx context.Context, orderID, channelID, call string, cause error) (*domain.ExchangeOrder, error) {
	reason := fmt.Sprintf("channel %s %s failed: %v", channelID, call, cause)
	s.LogError(ctx, cause, "Channel call failed, failing order",
		slog.String("order_id", orderID),
		slog.String("channel_id", channelID),
		slog.String("call", call))

	order, err := s.transition(context.WithoutCancel(ctx), orderID, domain.FxFailed, domain.TransitionPayload{
		FailureReason: &reason,
	}, nil)
	if err != nil {
		return nil, s.preempted(ctx, orderID, err)
	}
	return order, nil
}

// preempted reports a lost race with a cancellation as ErrAlreadyTerminal.
func (s *orderService) preempted(ctx context.Context, orderID string, err error) error {
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		return err
	}
	current, getErr := s.GetOrder(ctx, orderID)
	if getErr != nil || !current.OrderStatus.IsTerminal() {
		return err
	}
	return fmt.Errorf("%w: order %s is %s", apperrors.ErrAlreadyTerminal, orderID, current.OrderStatus)
}

// SettleOrder implements portssvc.OrderWriterSvc. An order left in SETTLEMENT_PROCESSING
// by an earlier attempt is resumed.
func (s *orderService) SettleOrder(ctx context.Context, orderID string, success bool, reason string) (*domain.ExchangeOrder, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus != domain.SettlementProcessing {
		if _, err := s.transition(ctx, orderID, domain.SettlementProcessing, domain.TransitionPayload{}, nil); err != nil {
			return nil, err
		}
	}

	if !success {
		if reason == "" {
			reason = "settlement failed"
		}
		return s.transition(ctx, orderID, domain.SettlementFailed, domain.TransitionPayload{FailureReason: &reason}, nil)
	}

	if _, err := s.transition(ctx, orderID, domain.SettlementSuccess, domain.TransitionPayload{Notes: reason}, nil); err != nil {
		return nil, err
	}
	return s.transition(ctx, orderID, domain.OrderCompleted, domain.TransitionPayload{}, nil)
}

// CloseOrder implements portssvc.OrderWriterSvc
func (s *orderService) CloseOrder(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	return s.transition(ctx, orderID, domain.OrderClosed, domain.TransitionPayload{}, nil)
}

// GetOrder implements portssvc.OrderReaderSvc
func (s *orderService) GetOrder(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	order, err := s.orderRepo.FindOrderByID(storeCtx, orderID)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("failed to get order %s", orderID), err)
	}
	return order, nil
}

// ListOrderEvents implements portssvc.OrderReaderSvc
func (s *orderService) ListOrderEvents(ctx context.Context, orderID string) ([]domain.OrderEvent, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}

	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	events, err := s.orderRepo.ListOrderEvents(storeCtx, orderID)
	if err != nil {
		return nil, storeErr("failed to list order events", err)
	}
	return events, nil
}

// ListOrdersByMerchant implements portssvc.OrderReaderSvc
func (s *orderService) ListOrdersByMerchant(ctx context.Context, merchantID string, limit int, nextToken *string) ([]domain.ExchangeOrder, *string, error) {
	if merchantID == "" {
		return nil, nil, fmt.Errorf("%w: merchant id is required", apperrors.ErrValidation)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	orders, next, err := s.orderRepo.ListOrdersByMerchant(storeCtx, merchantID, limit, nextToken)
	if err != nil {
		return nil, nil, storeErr("failed to list orders", err)
	}
	return orders, next, nil
}
