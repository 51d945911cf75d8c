package repositories

import (
	"context"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
)

// RateReader defines read operations for raw channel rates
type RateReader interface {
	// FindLatestRate returns the most recently fetched rate for a channel and pair, valid or not.
	FindLatestRate(ctx context.Context, channelID string, pair domain.CurrencyPair) (*domain.RawRate, error)
}

// RateWriter defines write operations for raw channel rates
type RateWriter interface {
	// SaveRate appends a fetched rate. Older rates for the same channel and pair are kept.
	SaveRate(ctx context.Context, rate domain.RawRate) error
}

// RateRepositoryFacade combines all rate-related repository interfaces
type RateRepositoryFacade interface {
	RateReader
	RateWriter
}
