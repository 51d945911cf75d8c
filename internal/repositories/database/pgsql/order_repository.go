package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
	"github.com/SscSPs/fx_quote_engine/internal/models"
	"github.com/SscSPs/fx_quote_engine/internal/utils/mapping"
	"github.com/SscSPs/fx_quote_engine/internal/utils/pagination"
)

const orderColumns = `
	order_id, merchant_id, quote_id, planned_sell_currency, planned_sell_amount,
	planned_buy_currency, planned_buy_amount, customer_rate, order_status,
	channel_id, channel_inquiry_id, channel_order_id, actual_sell_amount, actual_buy_amount,
	actual_rate, cost_amount, profit_amount, created_at, updated_at, executed_at, completed_at,
	failure_reason`

// PgxOrderRepository implements portsrepo.OrderRepositoryFacade.
type PgxOrderRepository struct {
	BaseRepository
}

// NewPgxOrderRepository creates a new PgxOrderRepository.
func NewPgxOrderRepository(pool *pgxpool.Pool) *PgxOrderRepository {
	return &PgxOrderRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.OrderRepositoryFacade = (*PgxOrderRepository)(nil)

func scanOrder(row rowScanner) (models.ExchangeOrder, error) {
	var m models.ExchangeOrder
	err := row.Scan(
		&m.OrderID, &m.MerchantID, &m.QuoteID, &m.PlannedSellCurrency, &m.PlannedSellAmount,
		&m.PlannedBuyCurrency, &m.PlannedBuyAmount, &m.CustomerRate, &m.OrderStatus,
		&m.ChannelID, &m.ChannelInquiryID, &m.ChannelOrderID, &m.ActualSellAmount, &m.ActualBuyAmount,
		&m.ActualRate, &m.CostAmount, &m.ProfitAmount, &m.CreatedAt, &m.UpdatedAt, &m.ExecutedAt,
		&m.CompletedAt, &m.FailureReason,
	)
	return m, err
}

func insertOrderEvent(ctx context.Context, q querier, event domain.OrderEvent) error {
	m := mapping.ToModelOrderEvent(event)
	_, err := q.Exec(ctx, `
		INSERT INTO order_events (event_id, order_id, event_type, event_data, triggered_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.EventID, m.OrderID, m.EventType, m.EventData, m.TriggeredBy, m.Notes, m.CreatedAt,
	)
	if err != nil {
		return dbErr("failed to insert order event", err)
	}
	return nil
}

// SaveOrder implements portsrepo.OrderWriter
func (r *PgxOrderRepository) SaveOrder(ctx context.Context, order domain.ExchangeOrder, event domain.OrderEvent) error {
	m := mapping.ToModelExchangeOrder(order)
	return r.withTx(ctx, func(q querier) error {
		_, err := q.Exec(ctx, `
			INSERT INTO exchange_orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
			m.OrderID, m.MerchantID, m.QuoteID, m.PlannedSellCurrency, m.PlannedSellAmount,
			m.PlannedBuyCurrency, m.PlannedBuyAmount, m.CustomerRate, m.OrderStatus,
			m.ChannelID, m.ChannelInquiryID, m.ChannelOrderID, m.ActualSellAmount, m.ActualBuyAmount,
			m.ActualRate, m.CostAmount, m.ProfitAmount, m.CreatedAt, m.UpdatedAt, m.ExecutedAt,
			m.CompletedAt, m.FailureReason,
		)
		if err != nil {
			return dbErr("failed to insert exchange order", err)
		}
		return insertOrderEvent(ctx, q, event)
	})
}

// UpdateOrderStatus implements portsrepo.OrderWriter
func (r *PgxOrderRepository) UpdateOrderStatus(ctx context.Context, order domain.ExchangeOrder, expected domain.OrderStatus, event domain.OrderEvent) error {
	m := mapping.ToModelExchangeOrder(order)
	return r.withTx(ctx, func(q querier) error {
		tag, err := q.Exec(ctx, `
			UPDATE exchange_orders SET
				order_status = $2, channel_id = $3, channel_inquiry_id = $4, channel_order_id = $5,
				actual_sell_amount = $6, actual_buy_amount = $7, actual_rate = $8,
				cost_amount = $9, profit_amount = $10, updated_at = $11, executed_at = $12,
				completed_at = $13, failure_reason = $14
			WHERE order_id = $1 AND order_status = $15`,
			m.OrderID, m.OrderStatus, m.ChannelID, m.ChannelInquiryID, m.ChannelOrderID,
			m.ActualSellAmount, m.ActualBuyAmount, m.ActualRate,
			m.CostAmount, m.ProfitAmount, m.UpdatedAt, m.ExecutedAt,
			m.CompletedAt, m.FailureReason, string(expected),
		)
		if err != nil {
			return dbErr("failed to update exchange order", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM exchange_orders WHERE order_id = $1)`, m.OrderID).Scan(&exists); err != nil {
				return dbErr("failed to check exchange order", err)
			}
			if !exists {
				return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", m.OrderID))
			}
			return apperrors.ErrStatusConflict
		}
		return insertOrderEvent(ctx, q, event)
	})
}

func (r *PgxOrderRepository) findOrder(ctx context.Context, column, value string) (*domain.ExchangeOrder, error) {
	row := r.q(ctx).QueryRow(ctx, `SELECT `+orderColumns+` FROM exchange_orders WHERE `+column+` = $1`, value)
	m, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with %s %s not found", column, value))
		}
		return nil, dbErr("failed to find exchange order", err)
	}
	order := mapping.ToDomainExchangeOrder(m)
	return &order, nil
}

// FindOrderByID implements portsrepo.OrderReader
func (r *PgxOrderRepository) FindOrderByID(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	return r.findOrder(ctx, "order_id", orderID)
}

// FindOrderByQuoteID implements portsrepo.OrderReader
func (r *PgxOrderRepository) FindOrderByQuoteID(ctx context.Context, quoteID string) (*domain.ExchangeOrder, error) {
	return r.findOrder(ctx, "quote_id", quoteID)
}

// ListOrderEvents implements portsrepo.OrderEventReader
func (r *PgxOrderRepository) ListOrderEvents(ctx context.Context, orderID string) ([]domain.OrderEvent, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT event_id, order_id, event_type, event_data, triggered_by, notes, created_at
		FROM order_events
		WHERE order_id = $1
		ORDER BY event_seq`,
		orderID,
	)
	if err != nil {
		return nil, dbErr("failed to query order events", err)
	}
	defer rows.Close()

	events := []domain.OrderEvent{}
	for rows.Next() {
		var m models.OrderEvent
		if err := rows.Scan(&m.EventID, &m.OrderID, &m.EventType, &m.EventData, &m.TriggeredBy, &m.Notes, &m.CreatedAt); err != nil {
			return nil, dbErr("failed to scan order event", err)
		}
		events = append(events, mapping.ToDomainOrderEvent(m))
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating order events", err)
	}
	return events, nil
}

// ListOrdersByMerchant implements portsrepo.OrderReader
func (r *PgxOrderRepository) ListOrdersByMerchant(ctx context.Context, merchantID string, limit int, nextToken *string) ([]domain.ExchangeOrder, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + orderColumns + ` FROM exchange_orders WHERE merchant_id = $1`
	args := []any{merchantID}
	if nextToken != nil && *nextToken != "" {
		cursorAt, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		query += ` AND (created_at, order_id) < ($2, $3)`
		args = append(args, cursorAt, cursorID)
	}
	// Fetch one extra row to know whether another page exists.
	query += fmt.Sprintf(` ORDER BY created_at DESC, order_id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit+1)

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, nil, dbErr("failed to query merchant orders", err)
	}
	defer rows.Close()

	var ms []models.ExchangeOrder
	for rows.Next() {
		m, err := scanOrder(rows)
		if err != nil {
			return nil, nil, dbErr("failed to scan exchange order", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, dbErr("error iterating merchant orders", err)
	}

	var next *string
	if len(ms) > limit {
		ms = ms[:limit]
		last := ms[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.OrderID)
		next = &token
	}
	return mapping.ToDomainExchangeOrderSlice(ms), next, nil
}
