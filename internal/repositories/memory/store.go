// Package memory is an in-process implementation of the repository ports. Status changes are
// compare-and-set under a mutex, mirroring the conditional UPDATEs of the PostgreSQL store, so
// the same concurrency guarantees hold in tests and single-node deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
)

type rateKey struct {
	channelID string
	pair      domain.CurrencyPair
}

// expiryEntry indexes a locked quote lock by expiry.
type expiryEntry struct {
	expiresAt time.Time
	quoteID   string
}

func expiryLess(a, b expiryEntry) bool {
	if !a.expiresAt.Equal(b.expiresAt) {
		return a.expiresAt.Before(b.expiresAt)
	}
	return a.quoteID < b.quoteID
}

// Store holds all state. mu guards the maps; txSem serialises transactions and the reads
// made outside them.
type Store struct {
	mu    sync.RWMutex
	txSem chan struct{}

	rates         map[rateKey][]domain.RawRate
	platformRules []domain.PlatformMarkupRule
	merchantRules []domain.MerchantRateRule

	locks  map[string]domain.QuoteLock
	expiry *btree.BTreeG[expiryEntry] // locked locks only

	orders         map[string]domain.ExchangeOrder
	orderByQuote   map[string]string
	merchantOrders map[string][]string
	events         map[string][]domain.OrderEvent
}

// NewStore creates an empty store.
func NewStore() *Store {
	const degree = 32
	return &Store{
		txSem:          make(chan struct{}, 1),
		rates:          make(map[rateKey][]domain.RawRate),
		locks:          make(map[string]domain.QuoteLock),
		expiry:         btree.NewG[expiryEntry](degree, expiryLess),
		orders:         make(map[string]domain.ExchangeOrder),
		orderByQuote:   make(map[string]string),
		merchantOrders: make(map[string][]string),
		events:         make(map[string][]domain.OrderEvent),
	}
}

// Provider exposes the store through the repository ports.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:     s,
		RateRepo:      s,
		MarkupRepo:    s,
		QuoteLockRepo: s,
		OrderRepo:     s,
	}
}

var (
	_ portsrepo.TransactionManager        = (*Store)(nil)
	_ portsrepo.RateRepositoryFacade      = (*Store)(nil)
	_ portsrepo.MarkupRuleReader          = (*Store)(nil)
	_ portsrepo.QuoteLockRepositoryFacade = (*Store)(nil)
	_ portsrepo.OrderRepositoryFacade     = (*Store)(nil)
)

type txKey struct{}

// memTx is an undo log applied in reverse on rollback.
type memTx struct {
	undo []func()
}

func txFromCtx(ctx context.Context) *memTx {
	tx, _ := ctx.Value(txKey{}).(*memTx)
	return tx
}

// WithinTx implements portsrepo.TransactionManager. Transactions run one at a time and wait
// for their turn only as long as ctx allows. Writes made outside a transaction do not wait;
// reads made outside one do, so a half-applied unit of work is never observed.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromCtx(ctx) != nil {
		return fn(ctx)
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	tx := &memTx{}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.txSem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() { <-s.txSem }

// enterRead waits out any running transaction unless ctx belongs to one. A ctx from
// WithoutTx also skips the wait since its caller may be the transaction holding txSem.
func (s *Store) enterRead(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ctx.Value(txKey{}) != nil {
		return func() {}, nil
	}
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	return s.release, nil
}

// WithoutTx implements portsrepo.TransactionManager
func (s *Store) WithoutTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, (*memTx)(nil))
}

// record registers an undo step when ctx carries a transaction. Callers hold mu.
func record(ctx context.Context, undo func()) {
	if tx := txFromCtx(ctx); tx != nil {
		tx.undo = append(tx.undo, undo)
	}
}
