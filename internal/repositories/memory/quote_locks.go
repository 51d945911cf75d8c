package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
)

// SaveQuoteLock implements portsrepo.QuoteLockWriter
func (s *Store) SaveQuoteLock(ctx context.Context, lock domain.QuoteLock) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.locks[lock.QuoteID]; exists {
		return fmt.Errorf("%w: quote lock %s", apperrors.ErrDuplicate, lock.QuoteID)
	}
	s.locks[lock.QuoteID] = lock
	if lock.Status == domain.QuoteLocked {
		s.expiry.ReplaceOrInsert(expiryEntry{expiresAt: lock.ExpiresAt, quoteID: lock.QuoteID})
	}
	record(ctx, func() {
		delete(s.locks, lock.QuoteID)
		s.expiry.Delete(expiryEntry{expiresAt: lock.ExpiresAt, quoteID: lock.QuoteID})
	})
	return nil
}

// FindQuoteLockByID implements portsrepo.QuoteLockReader
func (s *Store) FindQuoteLockByID(ctx context.Context, quoteID string) (*domain.QuoteLock, error) {
	release, err := s.enterRead(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.RLock()
	defer s.mu.RUnlock()

	lock, ok := s.locks[quoteID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("quote lock %s not found", quoteID))
	}
	return &lock, nil
}

// casLock moves a locked lock to next when cond holds. Callers hold mu.
func (s *Store) casLock(ctx context.Context, quoteID string, cond func(domain.QuoteLock) bool, mutate func(*domain.QuoteLock)) (*domain.QuoteLock, error) {
	prev, ok := s.locks[quoteID]
	if !ok || prev.Status != domain.QuoteLocked || !cond(prev) {
		return nil, apperrors.ErrStatusConflict
	}
	next := prev
	mutate(&next)
	s.locks[quoteID] = next
	entry := expiryEntry{expiresAt: prev.ExpiresAt, quoteID: quoteID}
	s.expiry.Delete(entry)
	record(ctx, func() {
		s.locks[quoteID] = prev
		s.expiry.ReplaceOrInsert(entry)
	})
	return &next, nil
}

// ConsumeQuoteLock implements portsrepo.QuoteLockWriter
func (s *Store) ConsumeQuoteLock(ctx context.Context, quoteID, orderID string, usedAt time.Time) (*domain.QuoteLock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.casLock(ctx, quoteID,
		func(l domain.QuoteLock) bool { return !usedAt.After(l.ExpiresAt) },
		func(l *domain.QuoteLock) {
			l.Status = domain.QuoteUsed
			l.UsedAt = &usedAt
			l.OrderID = &orderID
		})
}

// ExpireQuoteLock implements portsrepo.QuoteLockWriter
func (s *Store) ExpireQuoteLock(ctx context.Context, quoteID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.casLock(ctx, quoteID,
		func(l domain.QuoteLock) bool { return now.After(l.ExpiresAt) },
		func(l *domain.QuoteLock) { l.Status = domain.QuoteExpired })
	return err
}

// CancelQuoteLock implements portsrepo.QuoteLockWriter
func (s *Store) CancelQuoteLock(ctx context.Context, quoteID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.casLock(ctx, quoteID,
		func(l domain.QuoteLock) bool { return !now.After(l.ExpiresAt) },
		func(l *domain.QuoteLock) { l.Status = domain.QuoteCancelled })
	return err
}

// ExpireStaleQuoteLocks implements portsrepo.QuoteLockWriter. The expiry index holds only
// locked locks, so the scan stops at the first entry that has not expired.
func (s *Store) ExpireStaleQuoteLocks(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []string
	s.expiry.Ascend(func(e expiryEntry) bool {
		if !now.After(e.expiresAt) || len(stale) >= limit {
			return false
		}
		stale = append(stale, e.quoteID)
		return true
	})

	expired := make([]string, 0, len(stale))
	for _, quoteID := range stale {
		_, err := s.casLock(ctx, quoteID,
			func(l domain.QuoteLock) bool { return now.After(l.ExpiresAt) },
			func(l *domain.QuoteLock) { l.Status = domain.QuoteExpired })
		if err == nil {
			expired = append(expired, quoteID)
		}
	}
	return expired, nil
}
