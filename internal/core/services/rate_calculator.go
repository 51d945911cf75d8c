package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/dto"
	"github.com/SscSPs/fx_quote_engine/internal/metrics"
)

type rateCalculator struct {
	BaseService
	rateRepo portsrepo.RateReader
	markups  portssvc.MarkupResolverSvc
	channels []string
	limits   map[string]domain.ChannelLimits
}

// NewRateCalculator creates the pricing service. channels lists the channels in routing priority
// and is used whenever a request does not name one.
func NewRateCalculator(rateRepo portsrepo.RateReader, markups portssvc.MarkupResolverSvc, channels []string, opts ...BaseOption) portssvc.RateCalculatorSvc {
	return NewRoutingRateCalculator(rateRepo, markups, channels, nil, opts...)
}

// NewRoutingRateCalculator is NewRateCalculator with per-channel limits. Channels missing from
// limits accept any amount.
func NewRoutingRateCalculator(
	rateRepo portsrepo.RateReader,
	markups portssvc.MarkupResolverSvc,
	channels []string,
	limits map[string]domain.ChannelLimits,
	opts ...BaseOption,
) portssvc.RateCalculatorSvc {
	return &rateCalculator{
		BaseService: newBaseService(opts...),
		rateRepo:    rateRepo,
		markups:     markups,
		channels:    channels,
		limits:      limits,
	}
}

var _ portssvc.RateCalculatorSvc = (*rateCalculator)(nil)

// ComputeQuote implements portssvc.RateCalculatorSvc
func (s *rateCalculator) ComputeQuote(ctx context.Context, req dto.ComputeQuoteRequest) (*domain.RateCalculationResult, error) {
	pair, err := domain.ParseCurrencyPair(req.CurrencyPair)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	direction, err := pair.DirectionFor(req.SellCurrency, req.BuyCurrency)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if !req.SellAmount.IsPositive() {
		return nil, fmt.Errorf("%w: sell amount must be positive", apperrors.ErrValidation)
	}

	channels := s.channels
	if req.ChannelID != "" {
		channels = []string{strings.ToUpper(req.ChannelID)}
	}

	input := domain.QuoteInput{
		Direction:    direction,
		SellCurrency: strings.ToUpper(req.SellCurrency),
		SellAmount:   req.SellAmount,
		BuyCurrency:  strings.ToUpper(req.BuyCurrency),
	}

	for _, channelID := range channels {
		if !s.limits[channelID].Accepts(input.SellAmount) {
			s.LogDebug(ctx, "Channel does not accept amount, skipping",
				slog.String("channel_id", channelID),
				slog.String("sell_amount", input.SellAmount.String()))
			continue
		}

		raw, err := s.currentRate(ctx, channelID, pair)
		if errors.Is(err, apperrors.ErrRateUnavailable) {
			continue
		}
		if err != nil {
			return nil, err
		}

		markup, err := s.markups.ResolveMarkup(ctx, channelID, pair, req.MerchantID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve markup for %s on %s: %w", pair, channelID, err)
		}

		result, err := domain.PriceQuote(*raw, markup, input)
		if errors.Is(err, domain.ErrNonPositiveRate) {
			// A markup that prices the rate at or below zero is a configuration error on this channel.
			s.LogError(ctx, err, "Markup configuration produced an unusable rate",
				slog.String("channel_id", channelID),
				slog.String("currency_pair", pair.String()))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to price %s on %s: %w", pair, channelID, err)
		}

		s.LogDebug(ctx, "Quote computed",
			slog.String("channel_id", channelID),
			slog.String("currency_pair", pair.String()),
			slog.String("rate", result.Rate.String()),
			slog.String("buy_amount", result.BuyAmount.String()))
		return &result, nil
	}

	metrics.RateUnavailable.WithLabelValues(pair.String()).Inc()
	return nil, fmt.Errorf("%w: no current rate for %s on %s", apperrors.ErrRateUnavailable, pair, strings.Join(channels, ","))
}

// currentRate returns the latest rate for channel and pair if it is still within its validity window.
func (s *rateCalculator) currentRate(ctx context.Context, channelID string, pair domain.CurrencyPair) (*domain.RawRate, error) {
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	raw, err := s.rateRepo.FindLatestRate(storeCtx, channelID, pair)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrRateUnavailable
		}
		return nil, storeErr("failed to load current rate", err)
	}
	if !raw.IsValidAt(s.now()) {
		s.LogDebug(ctx, "Latest rate is stale",
			slog.String("channel_id", channelID),
			slog.String("currency_pair", pair.String()),
			slog.Time("valid_until", raw.ValidUntil))
		return nil, apperrors.ErrRateUnavailable
	}
	return raw, nil
}
