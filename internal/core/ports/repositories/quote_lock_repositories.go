package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
)

// QuoteLockReader defines read operations for quote locks
type QuoteLockReader interface {
	// FindQuoteLockByID retrieves a lock by its quote ID.
	FindQuoteLockByID(ctx context.Context, quoteID string) (*domain.QuoteLock, error)
}

// QuoteLockWriter defines the conditional writes for quote locks.
// Every status change is a compare-and-set against status = locked. When no row
// matches, the method returns apperrors.ErrStatusConflict and the caller re-reads.
type QuoteLockWriter interface {
	// SaveQuoteLock inserts a new lock.
	SaveQuoteLock(ctx context.Context, lock domain.QuoteLock) error

	// ConsumeQuoteLock moves a lock from locked to used if it has not expired at usedAt.
	ConsumeQuoteLock(ctx context.Context, quoteID, orderID string, usedAt time.Time) (*domain.QuoteLock, error)

	// ExpireQuoteLock moves a lock from locked to expired if its expiry is before now.
	ExpireQuoteLock(ctx context.Context, quoteID string, now time.Time) error

	// CancelQuoteLock moves a lock from locked to cancelled if it has not expired at now.
	CancelQuoteLock(ctx context.Context, quoteID string, now time.Time) error

	// ExpireStaleQuoteLocks expires up to limit locks whose expiry is before now and returns their IDs.
	ExpireStaleQuoteLocks(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// QuoteLockRepositoryFacade combines all quote lock repository interfaces
type QuoteLockRepositoryFacade interface {
	QuoteLockReader
	QuoteLockWriter
}
