package repositories

import (
	"context"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
)

// MarkupRuleReader reads pricing configuration. Rule approval is managed elsewhere; the engine never writes it.
type MarkupRuleReader interface {
	// ListPlatformMarkupRules returns every platform rule for the channel and pair, active or not.
	ListPlatformMarkupRules(ctx context.Context, channelID string, pair domain.CurrencyPair) ([]domain.PlatformMarkupRule, error)

	// ListMerchantRateRules returns every merchant rule for the merchant and pair regardless of approval.
	ListMerchantRateRules(ctx context.Context, merchantID string, pair domain.CurrencyPair) ([]domain.MerchantRateRule, error)
}
