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
)

// PgxRateRepository implements portsrepo.RateRepositoryFacade and portsrepo.MarkupRuleReader.
type PgxRateRepository struct {
	BaseRepository
}

// NewPgxRateRepository creates a new PgxRateRepository.
func NewPgxRateRepository(pool *pgxpool.Pool) *PgxRateRepository {
	return &PgxRateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var (
	_ portsrepo.RateRepositoryFacade = (*PgxRateRepository)(nil)
	_ portsrepo.MarkupRuleReader     = (*PgxRateRepository)(nil)
)

// SaveRate implements portsrepo.RateWriter
func (r *PgxRateRepository) SaveRate(ctx context.Context, rate domain.RawRate) error {
	m := mapping.ToModelRawRate(rate)
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO raw_rates (channel_id, currency_pair, bid_rate, ask_rate, mid_rate, fetch_time, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ChannelID, m.CurrencyPair, m.BidRate, m.AskRate, m.MidRate, m.FetchTime, m.ValidUntil,
	)
	if err != nil {
		return dbErr("failed to save raw rate", err)
	}
	return nil
}

// FindLatestRate implements portsrepo.RateReader
func (r *PgxRateRepository) FindLatestRate(ctx context.Context, channelID string, pair domain.CurrencyPair) (*domain.RawRate, error) {
	query := `
		SELECT rate_id, channel_id, currency_pair, bid_rate, ask_rate, mid_rate, fetch_time, valid_until
		FROM raw_rates
		WHERE channel_id = $1 AND currency_pair = $2
		ORDER BY fetch_time DESC
		LIMIT 1;
	`
	var m models.RawRate
	err := r.q(ctx).QueryRow(ctx, query, channelID, pair.String()).Scan(
		&m.RateID, &m.ChannelID, &m.CurrencyPair, &m.BidRate, &m.AskRate, &m.MidRate, &m.FetchTime, &m.ValidUntil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("no rate for %s on %s", pair, channelID))
		}
		return nil, dbErr("failed to find latest rate", err)
	}

	rate := mapping.ToDomainRawRate(m)
	return &rate, nil
}

// ListPlatformMarkupRules implements portsrepo.MarkupRuleReader
func (r *PgxRateRepository) ListPlatformMarkupRules(ctx context.Context, channelID string, pair domain.CurrencyPair) ([]domain.PlatformMarkupRule, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT rule_id, channel_id, currency_pair, markup_type, markup_value, effective_from, effective_to, is_active
		FROM platform_markup_rules
		WHERE channel_id = $1 AND currency_pair = $2`,
		channelID, pair.String(),
	)
	if err != nil {
		return nil, dbErr("failed to query platform markup rules", err)
	}
	defer rows.Close()

	var rules []domain.PlatformMarkupRule
	for rows.Next() {
		var m models.PlatformMarkupRule
		if err := rows.Scan(
			&m.RuleID, &m.ChannelID, &m.CurrencyPair, &m.MarkupType, &m.MarkupValue,
			&m.EffectiveFrom, &m.EffectiveTo, &m.IsActive,
		); err != nil {
			return nil, dbErr("failed to scan platform markup rule", err)
		}
		rules = append(rules, mapping.ToDomainPlatformMarkupRule(m))
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating platform markup rules", err)
	}
	return rules, nil
}

// ListMerchantRateRules implements portsrepo.MarkupRuleReader
func (r *PgxRateRepository) ListMerchantRateRules(ctx context.Context, merchantID string, pair domain.CurrencyPair) ([]domain.MerchantRateRule, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT rule_id, merchant_id, currency_pair, pricing_type, custom_rate, markup_value,
		       approval_status, effective_from, effective_to, is_active
		FROM merchant_rate_rules
		WHERE merchant_id = $1 AND currency_pair = $2`,
		merchantID, pair.String(),
	)
	if err != nil {
		return nil, dbErr("failed to query merchant rate rules", err)
	}
	defer rows.Close()

	var rules []domain.MerchantRateRule
	for rows.Next() {
		var m models.MerchantRateRule
		if err := rows.Scan(
			&m.RuleID, &m.MerchantID, &m.CurrencyPair, &m.PricingType, &m.CustomRate, &m.MarkupValue,
			&m.ApprovalStatus, &m.EffectiveFrom, &m.EffectiveTo, &m.IsActive,
		); err != nil {
			return nil, dbErr("failed to scan merchant rate rule", err)
		}
		rules = append(rules, mapping.ToDomainMerchantRateRule(m))
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating merchant rate rules", err)
	}
	return rules, nil
}
