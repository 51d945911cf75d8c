package mapping

import (
	"time"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	"github.com/SscSPs/fx_quote_engine/internal/models"
)

// ToModelQuoteLock converts a domain QuoteLock to a model QuoteLock
func ToModelQuoteLock(d domain.QuoteLock) models.QuoteLock {
	return models.QuoteLock{
		QuoteID:      d.QuoteID,
		MerchantID:   d.MerchantID,
		CurrencyPair: d.CurrencyPair.String(),
		Rate:         d.Rate,
		SellCurrency: d.SellCurrency,
		SellAmount:   d.SellAmount,
		BuyCurrency:  d.BuyCurrency,
		BuyAmount:    d.BuyAmount,
		LockedAt:     d.LockedAt,
		ExpiresAt:    d.ExpiresAt,
		UsedAt:       d.UsedAt,
		Status:       string(d.Status),
		OrderID:      d.OrderID,
		RateDetails: models.RateDetails{
			ChannelID:      d.RateDetails.ChannelID,
			Direction:      string(d.RateDetails.Direction),
			ChannelRate:    d.RateDetails.ChannelRate,
			PlatformMarkup: d.RateDetails.PlatformMarkup,
			MerchantMarkup: d.RateDetails.MerchantMarkup,
			PricingType:    string(d.RateDetails.PricingType),
			RateFetchedAt:  d.RateDetails.RateFetchedAt,
		},
	}
}

// ToDomainQuoteLock converts a model QuoteLock to a domain QuoteLock
func ToDomainQuoteLock(m models.QuoteLock) domain.QuoteLock {
	return domain.QuoteLock{
		QuoteID:      m.QuoteID,
		MerchantID:   m.MerchantID,
		CurrencyPair: domain.CurrencyPair(m.CurrencyPair),
		Rate:         m.Rate,
		SellCurrency: m.SellCurrency,
		SellAmount:   m.SellAmount,
		BuyCurrency:  m.BuyCurrency,
		BuyAmount:    m.BuyAmount,
		LockedAt:     m.LockedAt.UTC(),
		ExpiresAt:    m.ExpiresAt.UTC(),
		UsedAt:       utcPtr(m.UsedAt),
		Status:       domain.QuoteLockStatus(m.Status),
		OrderID:      m.OrderID,
		RateDetails: domain.RateDetails{
			ChannelID:      m.RateDetails.ChannelID,
			Direction:      domain.Direction(m.RateDetails.Direction),
			ChannelRate:    m.RateDetails.ChannelRate,
			PlatformMarkup: m.RateDetails.PlatformMarkup,
			MerchantMarkup: m.RateDetails.MerchantMarkup,
			PricingType:    domain.PricingType(m.RateDetails.PricingType),
			RateFetchedAt:  m.RateDetails.RateFetchedAt.UTC(),
		},
	}
}

// utcPtr normalises a nullable timestamp read from the database.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
