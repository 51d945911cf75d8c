package dto

import (
	"time"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateQuoteLockRequest defines the structure for locking a quote.
type CreateQuoteLockRequest struct {
	MerchantID   string          `json:"merchantId" binding:"required,max=100"`
	CurrencyPair string          `json:"currencyPair" binding:"required,currencypair"`
	SellCurrency string          `json:"sellCurrency" binding:"required,len=3,uppercase"`
	SellAmount   decimal.Decimal `json:"sellAmount" binding:"required,positivedecimal"`
	BuyCurrency  string          `json:"buyCurrency" binding:"required,len=3,uppercase"`
}

// QuoteLockResponse defines the structure for API responses containing a quote lock.
type QuoteLockResponse struct {
	QuoteID      string             `json:"quoteId"`
	MerchantID   string             `json:"merchantId"`
	CurrencyPair string             `json:"currencyPair"`
	Rate         decimal.Decimal    `json:"rate"`
	SellCurrency string             `json:"sellCurrency"`
	SellAmount   decimal.Decimal    `json:"sellAmount"`
	BuyCurrency  string             `json:"buyCurrency"`
	BuyAmount    decimal.Decimal    `json:"buyAmount"`
	LockedAt     time.Time          `json:"lockedAt"`
	ExpiresAt    time.Time          `json:"expiresAt"`
	UsedAt       *time.Time         `json:"usedAt,omitempty"`
	Status       string             `json:"status"`
	OrderID      *string            `json:"orderId,omitempty"`
	RateDetails  domain.RateDetails `json:"rateDetails"`
}

// ToQuoteLockResponse converts a domain.QuoteLock to QuoteLockResponse DTO
func ToQuoteLockResponse(l *domain.QuoteLock) QuoteLockResponse {
	return QuoteLockResponse{
		QuoteID:      l.QuoteID,
		MerchantID:   l.MerchantID,
		CurrencyPair: l.CurrencyPair.String(),
		Rate:         l.Rate,
		SellCurrency: l.SellCurrency,
		SellAmount:   l.SellAmount,
		BuyCurrency:  l.BuyCurrency,
		BuyAmount:    l.BuyAmount,
		LockedAt:     l.LockedAt,
		ExpiresAt:    l.ExpiresAt,
		UsedAt:       l.UsedAt,
		Status:       string(l.Status),
		OrderID:      l.OrderID,
		RateDetails:  l.RateDetails,
	}
}
