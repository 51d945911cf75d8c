package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Known liquidity channels, in default routing priority.
const (
	ChannelPHP     = "PHP"
	ChannelBOCHK   = "BOCHK"
	ChannelLEPTAGE = "LEPTAGE"
)

// ChannelInquiry is a channel's answer to an inquiry for an order.
type ChannelInquiry struct {
	InquiryID  string          `json:"inquiryId"`
	ChannelID  string          `json:"channelId"`
	Rate       decimal.Decimal `json:"rate"`
	ValidUntil time.Time       `json:"validUntil"`
}

// ChannelExecution is the channel's fill for an executed inquiry. Fee is in the buy currency.
type ChannelExecution struct {
	ChannelOrderID   string          `json:"channelOrderId"`
	ActualSellAmount decimal.Decimal `json:"actualSellAmount"`
	ActualBuyAmount  decimal.Decimal `json:"actualBuyAmount"`
	ActualRate       decimal.Decimal `json:"actualRate"`
	Fee              decimal.Decimal `json:"fee"`
	ExecutedAt       time.Time       `json:"executedAt"`
}

// Profit is what the platform keeps in the buy currency: the channel fill less what
// the customer was promised and less the channel fee.
func (e ChannelExecution) Profit(plannedBuyAmount decimal.Decimal, buyCurrency string) decimal.Decimal {
	return RoundAmount(e.ActualBuyAmount.Sub(plannedBuyAmount).Sub(e.Fee), buyCurrency)
}

// ChannelLimits constrain which orders a channel is routed. Zero bounds are unset, so the
// zero value accepts everything.
type ChannelLimits struct {
	Disabled  bool
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
}

// Accepts reports whether a sell amount may be routed to the channel.
func (l ChannelLimits) Accepts(sellAmount decimal.Decimal) bool {
	if l.Disabled {
		return false
	}
	if !l.MinAmount.IsZero() && sellAmount.LessThan(l.MinAmount) {
		return false
	}
	if !l.MaxAmount.IsZero() && sellAmount.GreaterThan(l.MaxAmount) {
		return false
	}
	return true
}
