package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	"github.com/SscSPs/fx_quote_engine/internal/utils/pagination"
)

// SaveOrder implements portsrepo.OrderWriter
func (s *Store) SaveOrder(ctx context.Context, order domain.ExchangeOrder, event domain.OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("%w: order %s", apperrors.ErrDuplicate, order.ID)
	}
	if existing, exists := s.orderByQuote[order.QuoteID]; exists {
		return fmt.Errorf("%w: quote %s already backs order %s", apperrors.ErrDuplicate, order.QuoteID, existing)
	}

	s.orders[order.ID] = order
	s.orderByQuote[order.QuoteID] = order.ID
	s.merchantOrders[order.MerchantID] = append(s.merchantOrders[order.MerchantID], order.ID)
	s.events[order.ID] = append(s.events[order.ID], event)
	record(ctx, func() {
		delete(s.orders, order.ID)
		delete(s.orderByQuote, order.QuoteID)
		delete(s.events, order.ID)
		ids := s.merchantOrders[order.MerchantID]
		for i, id := range ids {
			if id == order.ID {
				s.merchantOrders[order.MerchantID] = append(ids[:i:i], ids[i+1:]...)
				break
			}
		}
	})
	return nil
}

// UpdateOrderStatus implements portsrepo.OrderWriter
func (s *Store) UpdateOrderStatus(ctx context.Context, order domain.ExchangeOrder, expected domain.OrderStatus, event domain.OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.orders[order.ID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", order.ID))
	}
	if prev.OrderStatus != expected {
		return apperrors.ErrStatusConflict
	}
	s.orders[order.ID] = order
	s.events[order.ID] = append(s.events[order.ID], event)
	record(ctx, func() {
		s.orders[order.ID] = prev
		evs := s.events[order.ID]
		s.events[order.ID] = evs[:len(evs)-1]
	})
	return nil
}

// FindOrderByID implements portsrepo.OrderReader
func (s *Store) FindOrderByID(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	release, err := s.enterRead(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", orderID))
	}
	return &order, nil
}

// FindOrderByQuoteID implements portsrepo.OrderReader
func (s *Store) FindOrderByQuoteID(ctx context.Context, quoteID string) (*domain.ExchangeOrder, error) {
	release, err := s.enterRead(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.RLock()
	defer s.mu.RUnlock()

	orderID, ok := s.orderByQuote[quoteID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no order for quote %s", quoteID))
	}
	order := s.orders[orderID]
	return &order, nil
}

// ListOrderEvents implements portsrepo.OrderEventReader
func (s *Store) ListOrderEvents(ctx context.Context, orderID string) ([]domain.OrderEvent, error) {
	release, err := s.enterRead(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]domain.OrderEvent, len(s.events[orderID]))
	copy(events, s.events[orderID])
	return events, nil
}

// ListOrdersByMerchant implements portsrepo.OrderReader
func (s *Store) ListOrdersByMerchant(ctx context.Context, merchantID string, limit int, nextToken *string) ([]domain.ExchangeOrder, *string, error) {
	release, err := s.enterRead(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	if limit <= 0 {
		limit = 20
	}

	var (
		hasCursor bool
		cursorAt  time.Time
		cursorID  string
	)
	if nextToken != nil && *nextToken != "" {
		at, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		cursorAt, cursorID, hasCursor = at, id, true
	}

	s.mu.RLock()
	all := make([]domain.ExchangeOrder, 0, len(s.merchantOrders[merchantID]))
	for _, id := range s.merchantOrders[merchantID] {
		all = append(all, s.orders[id])
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	page := make([]domain.ExchangeOrder, 0, limit)
	more := false
	for _, o := range all {
		if hasCursor && !pagination.After(o.CreatedAt, o.ID, cursorAt, cursorID) {
			continue
		}
		if len(page) == limit {
			more = true
			break
		}
		page = append(page, o)
	}

	if !more || len(page) == 0 {
		return page, nil, nil
	}
	last := page[len(page)-1]
	token := pagination.EncodeToken(last.CreatedAt, last.ID)
	return page, &token, nil
}
