package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlatformMarkupRule is a row of platform_markup_rules.
type PlatformMarkupRule struct {
	RuleID        string          `db:"rule_id"`
	ChannelID     string          `db:"channel_id"`
	CurrencyPair  string          `db:"currency_pair"`
	MarkupType    string          `db:"markup_type"`
	MarkupValue   decimal.Decimal `db:"markup_value"`
	EffectiveFrom time.Time       `db:"effective_from"`
	EffectiveTo   *time.Time      `db:"effective_to"` // Nullable, open-ended when nil
	IsActive      bool            `db:"is_active"`
}

// MerchantRateRule is a row of merchant_rate_rules.
type MerchantRateRule struct {
	RuleID         string           `db:"rule_id"`
	MerchantID     string           `db:"merchant_id"`
	CurrencyPair   string           `db:"currency_pair"`
	PricingType    string           `db:"pricing_type"`
	CustomRate     *decimal.Decimal `db:"custom_rate"`  // Nullable, set for custom pricing
	MarkupValue    *decimal.Decimal `db:"markup_value"` // Nullable, pips for markup pricing
	ApprovalStatus string           `db:"approval_status"`
	EffectiveFrom  time.Time        `db:"effective_from"`
	EffectiveTo    *time.Time       `db:"effective_to"`
	IsActive       bool             `db:"is_active"`
}
