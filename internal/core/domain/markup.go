package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarkupType says how a platform markup value is interpreted.
type MarkupType string

const (
	MarkupPips       MarkupType = "pips"
	MarkupPercentage MarkupType = "percentage"
)

// PricingType selects how a merchant rule changes the platform rate.
type PricingType string

const (
	PricingPlatform PricingType = "platform"
	PricingCustom   PricingType = "custom"
	PricingMarkup   PricingType = "markup"
)

// ApprovalStatus of a merchant rule. Only approved rules are priced.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// PlatformMarkupRule is the platform's markup for a channel and pair.
type PlatformMarkupRule struct {
	ID            string          `json:"id"`
	ChannelID     string          `json:"channelId"`
	CurrencyPair  CurrencyPair    `json:"currencyPair"`
	MarkupType    MarkupType      `json:"markupType"`
	MarkupValue   decimal.Decimal `json:"markupValue"`
	EffectiveFrom time.Time       `json:"effectiveFrom"`
	EffectiveTo   *time.Time      `json:"effectiveTo,omitempty"`
	IsActive      bool            `json:"isActive"`
}

// AppliesAt reports whether the rule is active and its window [from, to) contains now.
func (r PlatformMarkupRule) AppliesAt(now time.Time) bool {
	return r.IsActive && inWindow(now, r.EffectiveFrom, r.EffectiveTo)
}

// MerchantRateRule is a merchant-specific override for a pair.
type MerchantRateRule struct {
	ID             string           `json:"id"`
	MerchantID     string           `json:"merchantId"`
	CurrencyPair   CurrencyPair     `json:"currencyPair"`
	PricingType    PricingType      `json:"pricingType"`
	CustomRate     *decimal.Decimal `json:"customRate,omitempty"`
	MarkupValue    *decimal.Decimal `json:"markupValue,omitempty"`
	ApprovalStatus ApprovalStatus   `json:"approvalStatus"`
	EffectiveFrom  time.Time        `json:"effectiveFrom"`
	EffectiveTo    *time.Time       `json:"effectiveTo,omitempty"`
	IsActive       bool             `json:"isActive"`
}

// AppliesAt reports whether the rule is approved, active, and in its window at now.
func (r MerchantRateRule) AppliesAt(now time.Time) bool {
	return r.ApprovalStatus == ApprovalApproved && r.IsActive && inWindow(now, r.EffectiveFrom, r.EffectiveTo)
}

// EffectiveMarkup is what the resolver hands the calculator.
type EffectiveMarkup struct {
	Platform *PlatformMarkupRule
	Merchant *MerchantRateRule
}

func inWindow(now, from time.Time, to *time.Time) bool {
	if now.Before(from) {
		return false
	}
	return to == nil || now.Before(*to)
}
