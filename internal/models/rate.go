package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRate is a row of raw_rates. Rows are append-only.
type RawRate struct {
	RateID       int64           `db:"rate_id"`
	ChannelID    string          `db:"channel_id"`
	CurrencyPair string          `db:"currency_pair"`
	BidRate      decimal.Decimal `db:"bid_rate"`
	AskRate      decimal.Decimal `db:"ask_rate"`
	MidRate      decimal.Decimal `db:"mid_rate"`
	FetchTime    time.Time       `db:"fetch_time"`
	ValidUntil   time.Time       `db:"valid_until"`
}
