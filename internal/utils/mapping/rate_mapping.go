package mapping

import (
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	"github.com/SscSPs/fx_quote_engine/internal/models"
)

// ToModelRawRate converts a domain RawRate to a model RawRate
func ToModelRawRate(d domain.RawRate) models.RawRate {
	return models.RawRate{
		ChannelID:    d.ChannelID,
		CurrencyPair: d.CurrencyPair.String(),
		BidRate:      d.BidRate,
		AskRate:      d.AskRate,
		MidRate:      d.MidRate,
		FetchTime:    d.FetchTime,
		ValidUntil:   d.ValidUntil,
	}
}

// ToDomainRawRate converts a model RawRate to a domain RawRate
func ToDomainRawRate(m models.RawRate) domain.RawRate {
	return domain.RawRate{
		ChannelID:    m.ChannelID,
		CurrencyPair: domain.CurrencyPair(m.CurrencyPair),
		BidRate:      m.BidRate,
		AskRate:      m.AskRate,
		MidRate:      m.MidRate,
		FetchTime:    m.FetchTime.UTC(),
		ValidUntil:   m.ValidUntil.UTC(),
	}
}

// ToDomainPlatformMarkupRule converts a model PlatformMarkupRule to a domain PlatformMarkupRule
func ToDomainPlatformMarkupRule(m models.PlatformMarkupRule) domain.PlatformMarkupRule {
	return domain.PlatformMarkupRule{
		ID:            m.RuleID,
		ChannelID:     m.ChannelID,
		CurrencyPair:  domain.CurrencyPair(m.CurrencyPair),
		MarkupType:    domain.MarkupType(m.MarkupType),
		MarkupValue:   m.MarkupValue,
		EffectiveFrom: m.EffectiveFrom.UTC(),
		EffectiveTo:   utcPtr(m.EffectiveTo),
		IsActive:      m.IsActive,
	}
}

// ToDomainMerchantRateRule converts a model MerchantRateRule to a domain MerchantRateRule
func ToDomainMerchantRateRule(m models.MerchantRateRule) domain.MerchantRateRule {
	return domain.MerchantRateRule{
		ID:             m.RuleID,
		MerchantID:     m.MerchantID,
		CurrencyPair:   domain.CurrencyPair(m.CurrencyPair),
		PricingType:    domain.PricingType(m.PricingType),
		CustomRate:     m.CustomRate,
		MarkupValue:    m.MarkupValue,
		ApprovalStatus: domain.ApprovalStatus(m.ApprovalStatus),
		EffectiveFrom:  m.EffectiveFrom.UTC(),
		EffectiveTo:    utcPtr(m.EffectiveTo),
		IsActive:       m.IsActive,
	}
}
