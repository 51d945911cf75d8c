package memory

import (
	"context"
	"fmt"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
)

// SaveRate implements portsrepo.RateWriter
func (s *Store) SaveRate(ctx context.Context, rate domain.RawRate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rateKey{channelID: rate.ChannelID, pair: rate.CurrencyPair}
	s.rates[key] = append(s.rates[key], rate)
	record(ctx, func() {
		s.rates[key] = s.rates[key][:len(s.rates[key])-1]
	})
	return nil
}

// FindLatestRate implements portsrepo.RateReader
func (s *Store) FindLatestRate(ctx context.Context, channelID string, pair domain.CurrencyPair) (*domain.RawRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.RawRate
	for i, r := range s.rates[rateKey{channelID: channelID, pair: pair}] {
		if latest == nil || r.FetchTime.After(latest.FetchTime) {
			latest = &s.rates[rateKey{channelID: channelID, pair: pair}][i]
		}
	}
	if latest == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no rate for %s on %s", pair, channelID))
	}
	out := *latest
	return &out, nil
}

// AddPlatformMarkupRule seeds a platform rule. Rules are configuration; the engine only reads them.
func (s *Store) AddPlatformMarkupRule(rule domain.PlatformMarkupRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.platformRules = append(s.platformRules, rule)
}

// AddMerchantRateRule seeds a merchant rule.
func (s *Store) AddMerchantRateRule(rule domain.MerchantRateRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merchantRules = append(s.merchantRules, rule)
}

// ListPlatformMarkupRules implements portsrepo.MarkupRuleReader
func (s *Store) ListPlatformMarkupRules(ctx context.Context, channelID string, pair domain.CurrencyPair) ([]domain.PlatformMarkupRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PlatformMarkupRule
	for _, r := range s.platformRules {
		if r.ChannelID == channelID && r.CurrencyPair == pair {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListMerchantRateRules implements portsrepo.MarkupRuleReader
func (s *Store) ListMerchantRateRules(ctx context.Context, merchantID string, pair domain.CurrencyPair) ([]domain.MerchantRateRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MerchantRateRule
	for _, r := range s.merchantRules {
		if r.MerchantID == merchantID && r.CurrencyPair == pair {
			out = append(out, r)
		}
	}
	return out, nil
}
