package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteLockStatus is the lifecycle state of a quote lock.
type QuoteLockStatus string

const (
	QuoteLocked    QuoteLockStatus = "locked"
	QuoteUsed      QuoteLockStatus = "used"
	QuoteExpired   QuoteLockStatus = "expired"
	QuoteCancelled QuoteLockStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible from s.
func (s QuoteLockStatus) IsTerminal() bool {
	return s == QuoteUsed || s == QuoteExpired || s == QuoteCancelled
}

// RateDetails records how the locked rate was priced.
type RateDetails struct {
	ChannelID      string           `json:"channelId"`
	Direction      Direction        `json:"direction"`
	ChannelRate    decimal.Decimal  `json:"channelRate"`
	PlatformMarkup decimal.Decimal  `json:"platformMarkup"`
	MerchantMarkup *decimal.Decimal `json:"merchantMarkup,omitempty"`
	PricingType    PricingType      `json:"pricingType"`
	RateFetchedAt  time.Time        `json:"rateFetchedAt"`
}

// QuoteLock is a time-boxed, single-use reservation of a computed rate.
type QuoteLock struct {
	QuoteID      string          `json:"quoteId"`
	MerchantID   string          `json:"merchantId"`
	CurrencyPair CurrencyPair    `json:"currencyPair"`
	Rate         decimal.Decimal `json:"rate"`
	SellCurrency string          `json:"sellCurrency"`
	SellAmount   decimal.Decimal `json:"sellAmount"`
	BuyCurrency  string          `json:"buyCurrency"`
	BuyAmount    decimal.Decimal `json:"buyAmount"`
	LockedAt     time.Time       `json:"lockedAt"`
	ExpiresAt    time.Time       `json:"expiresAt"`
	UsedAt       *time.Time      `json:"usedAt,omitempty"`
	Status       QuoteLockStatus `json:"status"`
	OrderID      *string         `json:"orderId,omitempty"`
	RateDetails  RateDetails     `json:"rateDetails"`
}

// IsExpiredAt reports whether a lock still marked locked has passed its expiry.
func (q QuoteLock) IsExpiredAt(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

// NewQuoteLock builds a lock in status locked from a priced quote.
func NewQuoteLock(quoteID, merchantID string, calc RateCalculationResult, now time.Time, ttl time.Duration) QuoteLock {
	return QuoteLock{
		QuoteID:      quoteID,
		MerchantID:   merchantID,
		CurrencyPair: calc.CurrencyPair,
		Rate:         calc.Rate,
		SellCurrency: calc.SellCurrency,
		SellAmount:   calc.SellAmount,
		BuyCurrency:  calc.BuyCurrency,
		BuyAmount:    calc.BuyAmount,
		LockedAt:     now,
		ExpiresAt:    now.Add(ttl),
		Status:       QuoteLocked,
		RateDetails: RateDetails{
			ChannelID:      calc.ChannelID,
			Direction:      calc.Direction,
			ChannelRate:    calc.ChannelRate,
			PlatformMarkup: calc.PlatformMarkup,
			MerchantMarkup: calc.MerchantMarkup,
			PricingType:    calc.PricingType,
			RateFetchedAt:  calc.RateFetchedAt,
		},
	}
}
