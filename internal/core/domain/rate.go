package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRate is an unmarked-up rate fetched from a channel. Newer fetches supersede it; it is never mutated.
type RawRate struct {
	ChannelID    string          `json:"channelId"`
	CurrencyPair CurrencyPair    `json:"currencyPair"`
	BidRate      decimal.Decimal `json:"bidRate"`
	AskRate      decimal.Decimal `json:"askRate"`
	MidRate      decimal.Decimal `json:"midRate"`
	FetchTime    time.Time       `json:"fetchTime"`
	ValidUntil   time.Time       `json:"validUntil"`
}

// IsValidAt reports whether the rate may still be quoted at now.
func (r RawRate) IsValidAt(now time.Time) bool {
	return !now.After(r.ValidUntil) && !now.Before(r.FetchTime)
}

// IsWellFormed checks the invariants a rate must satisfy before it is stored.
func (r RawRate) IsWellFormed() bool {
	if !r.ValidUntil.After(r.FetchTime) {
		return false
	}
	if !r.BidRate.IsPositive() || !r.AskRate.IsPositive() || !r.MidRate.IsPositive() {
		return false
	}
	return r.BidRate.LessThanOrEqual(r.AskRate)
}

// SideRate picks the bid or ask for the direction of the trade.
func (r RawRate) SideRate(d Direction) decimal.Decimal {
	if d == SellQuote {
		return r.BidRate
	}
	return r.AskRate
}

// RateCalculationResult is the outcome of pricing a quote. MerchantMarkup is nil when no merchant rule applied.
type RateCalculationResult struct {
	ChannelID      string           `json:"channelId"`
	CurrencyPair   CurrencyPair     `json:"currencyPair"`
	Direction      Direction        `json:"direction"`
	Rate           decimal.Decimal  `json:"rate"`
	SellCurrency   string           `json:"sellCurrency"`
	SellAmount     decimal.Decimal  `json:"sellAmount"`
	BuyCurrency    string           `json:"buyCurrency"`
	BuyAmount      decimal.Decimal  `json:"buyAmount"`
	ChannelRate    decimal.Decimal  `json:"channelRate"`
	PlatformMarkup decimal.Decimal  `json:"platformMarkup"`
	MerchantMarkup *decimal.Decimal `json:"merchantMarkup,omitempty"`
	PricingType    PricingType      `json:"pricingType"`
	RateFetchedAt  time.Time        `json:"rateFetchedAt"`
}
