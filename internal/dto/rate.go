package dto

import (
	"time"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ComputeQuoteRequest asks for a priced, unlocked quote. An empty ChannelID routes by channel priority.
type ComputeQuoteRequest struct {
	ChannelID    string          `json:"channelId" form:"channelId"`
	MerchantID   string          `json:"merchantId" form:"merchantId" binding:"required"`
	CurrencyPair string          `json:"currencyPair" form:"currencyPair" binding:"required,currencypair"`
	SellCurrency string          `json:"sellCurrency" form:"sellCurrency" binding:"required,len=3,uppercase"`
	SellAmount   decimal.Decimal `json:"sellAmount" form:"sellAmount" binding:"required,positivedecimal"`
	BuyCurrency  string          `json:"buyCurrency" form:"buyCurrency" binding:"required,len=3,uppercase"`
}

// QuoteResponse is a priced quote.
type QuoteResponse struct {
	ChannelID      string           `json:"channelId"`
	CurrencyPair   string           `json:"currencyPair"`
	Direction      string           `json:"direction"`
	Rate           decimal.Decimal  `json:"rate"`
	SellCurrency   string           `json:"sellCurrency"`
	SellAmount     decimal.Decimal  `json:"sellAmount"`
	BuyCurrency    string           `json:"buyCurrency"`
	BuyAmount      decimal.Decimal  `json:"buyAmount"`
	ChannelRate    decimal.Decimal  `json:"channelRate"`
	PlatformMarkup decimal.Decimal  `json:"platformMarkup"`
	MerchantMarkup *decimal.Decimal `json:"merchantMarkup,omitempty"`
	PricingType    string           `json:"pricingType"`
	RateFetchedAt  time.Time        `json:"rateFetchedAt"`
}

// ToQuoteResponse converts a domain.RateCalculationResult to QuoteResponse DTO
func ToQuoteResponse(r *domain.RateCalculationResult) QuoteResponse {
	return QuoteResponse{
		ChannelID:      r.ChannelID,
		CurrencyPair:   r.CurrencyPair.String(),
		Direction:      string(r.Direction),
		Rate:           r.Rate,
		SellCurrency:   r.SellCurrency,
		SellAmount:     r.SellAmount,
		BuyCurrency:    r.BuyCurrency,
		BuyAmount:      r.BuyAmount,
		ChannelRate:    r.ChannelRate,
		PlatformMarkup: r.PlatformMarkup,
		MerchantMarkup: r.MerchantMarkup,
		PricingType:    string(r.PricingType),
		RateFetchedAt:  r.RateFetchedAt,
	}
}
