package pgsql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
)

// fakeTx satisfies pgx.Tx; only the methods under test are implemented.
type fakeTx struct {
	pgx.Tx
	commitErr   error
	rollbackErr error
	rolledBack  bool
}

func (f *fakeTx) Commit(context.Context) error { return f.commitErr }

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return f.rollbackErr
}

func TestDbErr_UniqueViolationIsDuplicate(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "exchange_orders_quote_id_key"}

	err := dbErr("failed to save order", fmt.Errorf("insert: %w", pgErr))

	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.Contains(t, err.Error(), "exchange_orders_quote_id_key")
}

func TestDbErr_OtherErrorsAreInternal(t *testing.T) {
	err := dbErr("failed to save order", &pgconn.PgError{Code: "23503"})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 500, appErr.Code)
	assert.NotErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestDbErr_DeadlineIsTimeout(t *testing.T) {
	err := dbErr("failed to find order", context.DeadlineExceeded)

	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestQuerier_UsesTxFromContext(t *testing.T) {
	repo := &BaseRepository{}
	tx := &fakeTx{}

	_, isPool := repo.q(context.Background()).(*pgxpool.Pool)
	assert.True(t, isPool, "no tx on ctx should fall back to the pool")

	ctx := context.WithValue(context.Background(), txKey{}, pgx.Tx(tx))
	assert.Same(t, tx, repo.q(ctx))
}

func TestWithoutTx_DetachesFromCarriedTx(t *testing.T) {
	mgr := NewPgxTxManager(nil)
	ctx := context.WithValue(context.Background(), txKey{}, pgx.Tx(&fakeTx{}))

	detached := mgr.WithoutTx(ctx)

	_, isPool := mgr.q(detached).(*pgxpool.Pool)
	assert.True(t, isPool)
}

func TestWithinTx_NestedCallReusesOuterTx(t *testing.T) {
	mgr := NewPgxTxManager(nil)
	tx := &fakeTx{}
	outer := context.WithValue(context.Background(), txKey{}, pgx.Tx(tx))

	var seen querier
	err := mgr.WithinTx(outer, func(ctx context.Context) error {
		seen = mgr.q(ctx)
		return nil
	})

	require.NoError(t, err)
	assert.Same(t, tx, seen)
	assert.False(t, tx.rolledBack)
}

func TestWithTx_ReusesCarriedTxAndPropagatesError(t *testing.T) {
	repo := &BaseRepository{}
	tx := &fakeTx{}
	ctx := context.WithValue(context.Background(), txKey{}, pgx.Tx(tx))
	boom := errors.New("boom")

	err := repo.withTx(ctx, func(q querier) error {
		assert.Same(t, tx, q)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	// The owner of the carried transaction decides whether to roll back.
	assert.False(t, tx.rolledBack)
}

func TestRollback_IgnoresClosedTx(t *testing.T) {
	repo := &BaseRepository{}

	assert.NoError(t, repo.Rollback(context.Background(), &fakeTx{rollbackErr: pgx.ErrTxClosed}))

	err := repo.Rollback(context.Background(), &fakeTx{rollbackErr: errors.New("conn reset")})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 500, appErr.Code)
}

func TestCommit_WrapsDriverError(t *testing.T) {
	repo := &BaseRepository{}

	err := repo.Commit(context.Background(), &fakeTx{commitErr: context.DeadlineExceeded})

	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}
