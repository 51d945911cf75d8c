package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteLock is a row of quote_locks. RateDetails is stored as jsonb.
type QuoteLock struct {
	QuoteID      string          `db:"quote_id"`
	MerchantID   string          `db:"merchant_id"`
	CurrencyPair string          `db:"currency_pair"`
	Rate         decimal.Decimal `db:"rate"`
	SellCurrency string          `db:"sell_currency"`
	SellAmount   decimal.Decimal `db:"sell_amount"`
	BuyCurrency  string          `db:"buy_currency"`
	BuyAmount    decimal.Decimal `db:"buy_amount"`
	LockedAt     time.Time       `db:"locked_at"`
	ExpiresAt    time.Time       `db:"expires_at"`
	UsedAt       *time.Time      `db:"used_at"`
	Status       string          `db:"status"`
	OrderID      *string         `db:"order_id"`
	RateDetails  RateDetails     `db:"rate_details"`
}

// RateDetails is the jsonb payload of quote_locks.rate_details.
type RateDetails struct {
	ChannelID      string           `json:"channelId"`
	Direction      string           `json:"direction"`
	ChannelRate    decimal.Decimal  `json:"channelRate"`
	PlatformMarkup decimal.Decimal  `json:"platformMarkup"`
	MerchantMarkup *decimal.Decimal `json:"merchantMarkup,omitempty"`
	PricingType    string           `json:"pricingType"`
	RateFetchedAt  time.Time        `json:"rateFetchedAt"`
}
