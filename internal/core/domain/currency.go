package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RateScale is the number of decimal places kept on every exchange rate (decimal(18,8)).
const RateScale int32 = 8

// DefaultAmountPrecision is the minor-unit precision used for settlement currencies.
const DefaultAmountPrecision int32 = 2

// currencyPrecision lists currencies whose minor unit differs from DefaultAmountPrecision.
var currencyPrecision = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"IDR": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

// AmountPrecision returns the number of decimal places used for amounts in the given currency.
func AmountPrecision(currencyCode string) int32 {
	if p, ok := currencyPrecision[strings.ToUpper(currencyCode)]; ok {
		return p
	}
	return DefaultAmountPrecision
}

// RoundAmount rounds half-up to the currency's minor units.
// Amounts are always positive here, so decimal's half-away-from-zero is half-up.
func RoundAmount(amount decimal.Decimal, currencyCode string) decimal.Decimal {
	return amount.Round(AmountPrecision(currencyCode))
}

// RoundRate rounds a rate to RateScale places.
func RoundRate(rate decimal.Decimal) decimal.Decimal {
	return rate.Round(RateScale)
}

// CurrencyPair is a pair in BASE/QUOTE notation, e.g. "USD/HKD".
type CurrencyPair string

// ParseCurrencyPair validates and normalizes a BASE/QUOTE pair.
func ParseCurrencyPair(s string) (CurrencyPair, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(s)), "/")
	if len(parts) != 2 || !isCurrencyCode(parts[0]) || !isCurrencyCode(parts[1]) {
		return "", fmt.Errorf("currency pair %q must be in BASE/QUOTE format, e.g. USD/HKD", s)
	}
	if parts[0] == parts[1] {
		return "", fmt.Errorf("currency pair %q has identical base and quote", s)
	}
	return CurrencyPair(parts[0] + "/" + parts[1]), nil
}

// Base returns the base currency code.
func (p CurrencyPair) Base() string {
	base, _, _ := strings.Cut(string(p), "/")
	return base
}

// Quote returns the quote currency code.
func (p CurrencyPair) Quote() string {
	_, quote, _ := strings.Cut(string(p), "/")
	return quote
}

func (p CurrencyPair) String() string {
	return string(p)
}

// PipSize is the value of one pip for the pair: 0.01 for JPY-quoted pairs, 0.0001 otherwise.
func (p CurrencyPair) PipSize() decimal.Decimal {
	if p.Quote() == "JPY" {
		return decimal.New(1, -2)
	}
	return decimal.New(1, -4)
}

// Direction is derived from which side of the pair the merchant sells.
type Direction string

const (
	// SellBase sells the base currency and buys the quote currency; priced off the ask.
	SellBase Direction = "SELL_BASE"
	// SellQuote sells the quote currency and buys the base currency; priced off the bid.
	SellQuote Direction = "SELL_QUOTE"
)

// DirectionFor works out the trade direction for a pair, or fails if the currencies do not match it.
func (p CurrencyPair) DirectionFor(sellCurrency, buyCurrency string) (Direction, error) {
	sell := strings.ToUpper(sellCurrency)
	buy := strings.ToUpper(buyCurrency)
	switch {
	case sell == p.Base() && buy == p.Quote():
		return SellBase, nil
	case sell == p.Quote() && buy == p.Base():
		return SellQuote, nil
	default:
		return "", fmt.Errorf("currencies %s->%s do not match pair %s", sell, buy, p)
	}
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
