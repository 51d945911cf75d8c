package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
	"github.com/SscSPs/fx_quote_engine/internal/models"
	"github.com/SscSPs/fx_quote_engine/internal/utils/mapping"
)

const quoteLockColumns = `
	quote_id, merchant_id, currency_pair, rate, sell_currency, sell_amount, buy_currency, buy_amount,
	locked_at, expires_at, used_at, status, order_id, rate_details`

// PgxQuoteLockRepository implements portsrepo.QuoteLockRepositoryFacade.
// Every status change is a single UPDATE guarded by status = 'locked'.
type PgxQuoteLockRepository struct {
	BaseRepository
}

// NewPgxQuoteLockRepository creates a new PgxQuoteLockRepository.
func NewPgxQuoteLockRepository(pool *pgxpool.Pool) *PgxQuoteLockRepository {
	return &PgxQuoteLockRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.QuoteLockRepositoryFacade = (*PgxQuoteLockRepository)(nil)

func scanQuoteLock(row rowScanner) (domain.QuoteLock, error) {
	var m models.QuoteLock
	err := row.Scan(
		&m.QuoteID, &m.MerchantID, &m.CurrencyPair, &m.Rate, &m.SellCurrency, &m.SellAmount,
		&m.BuyCurrency, &m.BuyAmount, &m.LockedAt, &m.ExpiresAt, &m.UsedAt, &m.Status,
		&m.OrderID, &m.RateDetails,
	)
	if err != nil {
		return domain.QuoteLock{}, err
	}
	return mapping.ToDomainQuoteLock(m), nil
}

// SaveQuoteLock implements portsrepo.QuoteLockWriter
func (r *PgxQuoteLockRepository) SaveQuoteLock(ctx context.Context, lock domain.QuoteLock) error {
	m := mapping.ToModelQuoteLock(lock)
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO quote_locks (`+quoteLockColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		m.QuoteID, m.MerchantID, m.CurrencyPair, m.Rate, m.SellCurrency, m.SellAmount,
		m.BuyCurrency, m.BuyAmount, m.LockedAt, m.ExpiresAt, m.UsedAt, m.Status,
		m.OrderID, m.RateDetails,
	)
	if err != nil {
		return dbErr("failed to save quote lock", err)
	}
	return nil
}

// FindQuoteLockByID implements portsrepo.QuoteLockReader
func (r *PgxQuoteLockRepository) FindQuoteLockByID(ctx context.Context, quoteID string) (*domain.QuoteLock, error) {
	row := r.q(ctx).QueryRow(ctx, `SELECT `+quoteLockColumns+` FROM quote_locks WHERE quote_id = $1`, quoteID)
	lock, err := scanQuoteLock(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("quote lock %s not found", quoteID))
		}
		return nil, dbErr("failed to find quote lock", err)
	}
	return &lock, nil
}

// ConsumeQuoteLock implements portsrepo.QuoteLockWriter
func (r *PgxQuoteLockRepository) ConsumeQuoteLock(ctx context.Context, quoteID, orderID string, usedAt time.Time) (*domain.QuoteLock, error) {
	row := r.q(ctx).QueryRow(ctx, `
		UPDATE quote_locks
		SET status = 'used', used_at = $3, order_id = $2
		WHERE quote_id = $1 AND status = 'locked' AND expires_at >= $3
		RETURNING `+quoteLockColumns,
		quoteID, orderID, usedAt,
	)
	lock, err := scanQuoteLock(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStatusConflict
		}
		return nil, dbErr("failed to consume quote lock", err)
	}
	return &lock, nil
}

// ExpireQuoteLock implements portsrepo.QuoteLockWriter
func (r *PgxQuoteLockRepository) ExpireQuoteLock(ctx context.Context, quoteID string, now time.Time) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE quote_locks SET status = 'expired'
		WHERE quote_id = $1 AND status = 'locked' AND expires_at < $2`,
		quoteID, now,
	)
	if err != nil {
		return dbErr("failed to expire quote lock", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStatusConflict
	}
	return nil
}

// CancelQuoteLock implements portsrepo.QuoteLockWriter
func (r *PgxQuoteLockRepository) CancelQuoteLock(ctx context.Context, quoteID string, now time.Time) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE quote_locks SET status = 'cancelled'
		WHERE quote_id = $1 AND status = 'locked' AND expires_at >= $2`,
		quoteID, now,
	)
	if err != nil {
		return dbErr("failed to cancel quote lock", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStatusConflict
	}
	return nil
}

// ExpireStaleQuoteLocks implements portsrepo.QuoteLockWriter. SKIP LOCKED leaves rows that a
// consumer is updating right now to that consumer.
func (r *PgxQuoteLockRepository) ExpireStaleQuoteLocks(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.q(ctx).Query(ctx, `
		UPDATE quote_locks SET status = 'expired'
		WHERE status = 'locked' AND quote_id IN (
			SELECT quote_id FROM quote_locks
			WHERE status = 'locked' AND expires_at < $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING quote_id`,
		now, limit,
	)
	if err != nil {
		return nil, dbErr("failed to expire stale quote locks", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dbErr("failed to read expired quote lock ids", err)
	}
	return ids, nil
}
