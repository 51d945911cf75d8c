package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
)

type markupResolver struct {
	BaseService
	markupRepo portsrepo.MarkupRuleReader
}

// NewMarkupResolver creates a resolver reading rules from the configuration repository.
func NewMarkupResolver(markupRepo portsrepo.MarkupRuleReader, opts ...BaseOption) portssvc.MarkupResolverSvc {
	return &markupResolver{
		BaseService: newBaseService(opts...),
		markupRepo:  markupRepo,
	}
}

var _ portssvc.MarkupResolverSvc = (*markupResolver)(nil)

// ResolveMarkup implements portssvc.MarkupResolverSvc
func (s *markupResolver) ResolveMarkup(ctx context.Context, channelID string, pair domain.CurrencyPair, merchantID string) (domain.EffectiveMarkup, error) {
	now := s.now()
	var result domain.EffectiveMarkup

	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	platformRules, err := s.markupRepo.ListPlatformMarkupRules(storeCtx, channelID, pair)
	if err != nil {
		return result, storeErr("failed to load platform markup rules", err)
	}
	var applicable int
	for i := range platformRules {
		rule := platformRules[i]
		if !rule.AppliesAt(now) {
			continue
		}
		applicable++
		// Windows should not overlap; if they do, the most recently started one wins.
		if result.Platform == nil || rule.EffectiveFrom.After(result.Platform.EffectiveFrom) {
			result.Platform = &rule
		}
	}
	if applicable > 1 {
		s.LogWarn(ctx, "Overlapping platform markup windows",
			slog.String("channel_id", channelID),
			slog.String("currency_pair", pair.String()),
			slog.Int("applicable_rules", applicable),
			slog.String("chosen_rule_id", result.Platform.ID))
	}

	if merchantID == "" {
		return result, nil
	}

	merchantRules, err := s.markupRepo.ListMerchantRateRules(storeCtx, merchantID, pair)
	if err != nil {
		return result, storeErr("failed to load merchant rate rules", err)
	}
	for i := range merchantRules {
		rule := merchantRules[i]
		if !rule.AppliesAt(now) {
			continue
		}
		if result.Merchant == nil || rule.EffectiveFrom.After(result.Merchant.EffectiveFrom) {
			result.Merchant = &rule
		}
	}

	return result, nil
}
