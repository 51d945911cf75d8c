package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/dto"
	"github.com/SscSPs/fx_quote_engine/internal/metrics"
)

const (
	// DefaultQuoteLockDuration is how long a lock stays consumable.
	DefaultQuoteLockDuration = 30 * time.Second

	// maxLockCASAttempts bounds the retries when a lock is still locked after a failed
	// conditional update, which only happens if the row moved between update and re-read.
	maxLockCASAttempts = 3

	// expireBatchSize caps how many locks a single store call expires.
	expireBatchSize = 500
)

type quoteLockService struct {
	BaseService
	txManager    portsrepo.TransactionManager
	lockRepo     portsrepo.QuoteLockRepositoryFacade
	calculator   portssvc.RateCalculatorSvc
	lockDuration time.Duration
}

// NewQuoteLockService creates the quote lock manager.
func NewQuoteLockService(
	txManager portsrepo.TransactionManager,
	lockRepo portsrepo.QuoteLockRepositoryFacade,
	calculator portssvc.RateCalculatorSvc,
	lockDuration time.Duration,
	opts ...BaseOption,
) portssvc.QuoteLockSvcFacade {
	if lockDuration <= 0 {
		lockDuration = DefaultQuoteLockDuration
	}
	return &quoteLockService{
		BaseService:  newBaseService(opts...),
		txManager:    txManager,
		lockRepo:     lockRepo,
		calculator:   calculator,
		lockDuration: lockDuration,
	}
}

var _ portssvc.QuoteLockSvcFacade = (*quoteLockService)(nil)

// CreateLock implements portssvc.QuoteLockWriterSvc
func (s *quoteLockService) CreateLock(ctx context.Context, req dto.CreateQuoteLockRequest) (*domain.QuoteLock, error) {
	calc, err := s.calculator.ComputeQuote(ctx, dto.ComputeQuoteRequest{
		MerchantID:   req.MerchantID,
		CurrencyPair: req.CurrencyPair,
		SellCurrency: req.SellCurrency,
		SellAmount:   req.SellAmount,
		BuyCurrency:  req.BuyCurrency,
	})
	if err != nil {
		return nil, err
	}

	lock := domain.NewQuoteLock(uuid.NewString(), req.MerchantID, *calc, s.now(), s.lockDuration)

	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	if err := s.lockRepo.SaveQuoteLock(storeCtx, lock); err != nil {
		s.LogError(ctx, err, "Failed to persist quote lock", slog.String("quote_id", lock.QuoteID))
		return nil, storeErr("failed to save quote lock", err)
	}

	metrics.QuoteLocksCreated.WithLabelValues(calc.ChannelID, calc.CurrencyPair.String()).Inc()
	s.LogInfo(ctx, "Quote locked",
		slog.String("quote_id", lock.QuoteID),
		slog.String("merchant_id", lock.MerchantID),
		slog.String("channel_id", calc.ChannelID),
		slog.String("currency_pair", lock.CurrencyPair.String()),
		slog.String("rate", lock.Rate.String()),
		slog.Time("expires_at", lock.ExpiresAt))
	return &lock, nil
}

// ConsumeLock implements portssvc.QuoteLockWriterSvc.
// The conditional update is attempted first; only when it matches nothing is the lock
// re-read to report why.
func (s *quoteLockService) ConsumeLock(ctx context.Context, quoteID, orderID string) (*domain.QuoteLock, error) {
	for attempt := 0; attempt < maxLockCASAttempts; attempt++ {
		now := s.now()

		storeCtx, cancel := s.withStoreTimeout(ctx)
		lock, err := s.lockRepo.ConsumeQuoteLock(storeCtx, quoteID, orderID, now)
		cancel()
		if err == nil {
			metrics.QuoteLockOutcomes.WithLabelValues("used").Inc()
			s.LogInfo(ctx, "Quote lock consumed", slog.String("quote_id", quoteID), slog.String("order_id", orderID))
			return lock, nil
		}
		if !errors.Is(err, apperrors.ErrStatusConflict) {
			return nil, storeErr("failed to consume quote lock", err)
		}

		current, err := s.GetLock(ctx, quoteID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				metrics.QuoteLockOutcomes.WithLabelValues("not_found").Inc()
			}
			return nil, err
		}

		switch {
		case current.Status != domain.QuoteLocked:
			metrics.QuoteLockOutcomes.WithLabelValues("conflict").Inc()
			return nil, fmt.Errorf("%w: quote %s is %s", apperrors.ErrAlreadyConsumedOrExpired, quoteID, current.Status)
		case current.IsExpiredAt(now):
			if err := s.expireLock(ctx, quoteID, now); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: quote %s expired at %s", apperrors.ErrExpired, quoteID, current.ExpiresAt.Format(time.RFC3339))
		}

		s.LogDebug(ctx, "Quote lock changed during consume, retrying",
			slog.String("quote_id", quoteID), slog.Int("attempt", attempt+1))
	}
	return nil, fmt.Errorf("%w: quote %s kept changing during consume", apperrors.ErrTimeout, quoteID)
}

// CancelLock implements portssvc.QuoteLockWriterSvc
func (s *quoteLockService) CancelLock(ctx context.Context, quoteID string) (*domain.QuoteLock, error) {
	for attempt := 0; attempt < maxLockCASAttempts; attempt++ {
		now := s.now()

		storeCtx, cancel := s.withStoreTimeout(ctx)
		err := s.lockRepo.CancelQuoteLock(storeCtx, quoteID, now)
		cancel()
		if err == nil {
			metrics.QuoteLockOutcomes.WithLabelValues("cancelled").Inc()
			s.LogInfo(ctx, "Quote lock cancelled", slog.String("quote_id", quoteID))
			return s.GetLock(ctx, quoteID)
		}
		if !errors.Is(err, apperrors.ErrStatusConflict) {
			return nil, storeErr("failed to cancel quote lock", err)
		}

		current, err := s.GetLock(ctx, quoteID)
		if err != nil {
			return nil, err
		}
		switch {
		case current.Status != domain.QuoteLocked:
			return nil, fmt.Errorf("%w: quote %s is %s", apperrors.ErrAlreadyTerminal, quoteID, current.Status)
		case current.IsExpiredAt(now):
			if err := s.expireLock(ctx, quoteID, now); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: quote %s is %s", apperrors.ErrAlreadyTerminal, quoteID, domain.QuoteExpired)
		}
	}
	return nil, fmt.Errorf("%w: quote %s kept changing during cancel", apperrors.ErrTimeout, quoteID)
}

// expireLock persists locked -> expired outside any surrounding transaction, so the
// expiry sticks even when the caller's unit of work rolls back.
func (s *quoteLockService) expireLock(ctx context.Context, quoteID string, now time.Time) error {
	storeCtx, cancel := s.withStoreTimeout(s.txManager.WithoutTx(ctx))
	defer cancel()

	err := s.lockRepo.ExpireQuoteLock(storeCtx, quoteID, now)
	switch {
	case err == nil:
		metrics.QuoteLockOutcomes.WithLabelValues("expired").Inc()
		s.LogInfo(ctx, "Quote lock expired on access", slog.String("quote_id", quoteID))
		return nil
	case errors.Is(err, apperrors.ErrStatusConflict):
		// The sweeper got there first.
		return nil
	default:
		return storeErr("failed to expire quote lock", err)
	}
}

// GetLock implements portssvc.QuoteLockReaderSvc
func (s *quoteLockService) GetLock(ctx context.Context, quoteID string) (*domain.QuoteLock, error) {
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	lock, err := s.lockRepo.FindQuoteLockByID(storeCtx, quoteID)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("failed to get quote lock %s", quoteID), err)
	}
	return lock, nil
}

// ExpireStaleLocks implements portssvc.QuoteLockWriterSvc
func (s *quoteLockService) ExpireStaleLocks(ctx context.Context) (int, error) {
	now := s.now()
	total := 0
	for {
		storeCtx, cancel := s.withStoreTimeout(ctx)
		ids, err := s.lockRepo.ExpireStaleQuoteLocks(storeCtx, now, expireBatchSize)
		cancel()
		if err != nil {
			return total, storeErr("failed to expire stale quote locks", err)
		}
		total += len(ids)
		metrics.QuoteLockOutcomes.WithLabelValues("expired").Add(float64(len(ids)))
		if len(ids) < expireBatchSize {
			return total, nil
		}
	}
}
