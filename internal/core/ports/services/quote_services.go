package services

import (
	"context"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	"github.com/SscSPs/fx_quote_engine/internal/dto"
)

// MarkupResolverSvc resolves the markups that apply to a quote right now
type MarkupResolverSvc interface {
	// ResolveMarkup returns the platform rule for channel and pair and, when merchantID is set,
	// the merchant rule for merchant and pair. Either may be nil.
	ResolveMarkup(ctx context.Context, channelID string, pair domain.CurrencyPair, merchantID string) (domain.EffectiveMarkup, error)
}

// RateCalculatorSvc prices quotes without side effects
type RateCalculatorSvc interface {
	// ComputeQuote prices a sell amount on one channel, or on the first channel with a current
	// rate when req.ChannelID is empty.
	ComputeQuote(ctx context.Context, req dto.ComputeQuoteRequest) (*domain.RateCalculationResult, error)
}

// QuoteLockReaderSvc defines read operations for quote locks
type QuoteLockReaderSvc interface {
	// GetLock retrieves a quote lock by ID.
	GetLock(ctx context.Context, quoteID string) (*domain.QuoteLock, error)
}

// QuoteLockWriterSvc defines the quote lock lifecycle
type QuoteLockWriterSvc interface {
	// CreateLock prices and persists a new lock in status locked.
	CreateLock(ctx context.Context, req dto.CreateQuoteLockRequest) (*domain.QuoteLock, error)

	// ConsumeLock moves a lock from locked to used for orderID. Exactly one concurrent caller wins.
	ConsumeLock(ctx context.Context, quoteID, orderID string) (*domain.QuoteLock, error)

	// CancelLock moves a lock from locked to cancelled.
	CancelLock(ctx context.Context, quoteID string) (*domain.QuoteLock, error)

	// ExpireStaleLocks expires every locked lock past its expiry and returns how many it moved.
	ExpireStaleLocks(ctx context.Context) (int, error)
}

// QuoteLockSvcFacade combines all quote lock service interfaces
type QuoteLockSvcFacade interface {
	QuoteLockReaderSvc
	QuoteLockWriterSvc
}
