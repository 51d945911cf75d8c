package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ErrNonPositiveRate is returned when markups push a rate to zero or below.
var ErrNonPositiveRate = errors.New("computed rate is not positive")

// QuoteInput is what PriceQuote needs besides the raw rate and markups.
type QuoteInput struct {
	Direction    Direction
	SellCurrency string
	SellAmount   decimal.Decimal
	BuyCurrency  string
}

// PriceQuote turns a raw channel rate and the resolved markups into a customer rate and amounts.
//
// The ask is used when the merchant sells the base currency and the bid when it sells the quote
// currency. Platform and merchant markups widen the rate away from mid: added on the ask side,
// subtracted on the bid side. A custom merchant rate replaces the result outright.
func PriceQuote(raw RawRate, markup EffectiveMarkup, in QuoteInput) (RateCalculationResult, error) {
	pair := raw.CurrencyPair
	side := raw.SideRate(in.Direction)
	sign := decimal.NewFromInt(1)
	if in.Direction == SellQuote {
		sign = sign.Neg()
	}

	platformMarkup := decimal.Zero
	if p := markup.Platform; p != nil {
		switch p.MarkupType {
		case MarkupPips:
			platformMarkup = p.MarkupValue.Mul(pair.PipSize())
		case MarkupPercentage:
			platformMarkup = side.Mul(p.MarkupValue).Div(hundred)
		}
	}
	rate := side.Add(sign.Mul(platformMarkup))

	pricingType := PricingPlatform
	var merchantMarkup *decimal.Decimal
	if m := markup.Merchant; m != nil {
		switch m.PricingType {
		case PricingCustom:
			if m.CustomRate != nil && m.CustomRate.IsPositive() {
				rate = *m.CustomRate
				platformMarkup = decimal.Zero
				pricingType = PricingCustom
			}
		case PricingMarkup:
			if m.MarkupValue != nil {
				adj := m.MarkupValue.Mul(pair.PipSize())
				rate = rate.Add(sign.Mul(adj))
				merchantMarkup = &adj
				pricingType = PricingMarkup
			}
		}
	}

	rate = RoundRate(rate)
	if !rate.IsPositive() {
		return RateCalculationResult{}, fmt.Errorf("%w: %s for %s", ErrNonPositiveRate, rate, pair)
	}

	sellAmount := RoundAmount(in.SellAmount, in.SellCurrency)
	var buyAmount decimal.Decimal
	if in.Direction == SellBase {
		buyAmount = sellAmount.Mul(rate)
	} else {
		buyAmount = sellAmount.Div(rate)
	}

	return RateCalculationResult{
		ChannelID:      raw.ChannelID,
		CurrencyPair:   pair,
		Direction:      in.Direction,
		Rate:           rate,
		SellCurrency:   in.SellCurrency,
		SellAmount:     sellAmount,
		BuyCurrency:    in.BuyCurrency,
		BuyAmount:      RoundAmount(buyAmount, in.BuyCurrency),
		ChannelRate:    side,
		PlatformMarkup: platformMarkup,
		MerchantMarkup: merchantMarkup,
		PricingType:    pricingType,
		RateFetchedAt:  raw.FetchTime,
	}, nil
}
