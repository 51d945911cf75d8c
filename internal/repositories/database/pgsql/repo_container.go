package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	rateRepo := NewPgxRateRepository(dbPool)

	return portsrepo.RepositoryProvider{
		TxManager:     NewPgxTxManager(dbPool),
		RateRepo:      rateRepo,
		MarkupRepo:    rateRepo,
		QuoteLockRepo: NewPgxQuoteLockRepository(dbPool),
		OrderRepo:     NewPgxOrderRepository(dbPool),
	}
}
