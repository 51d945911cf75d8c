package mapping

import (
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	"github.com/SscSPs/fx_quote_engine/internal/models"
)

// ToModelExchangeOrder converts a domain ExchangeOrder to a model ExchangeOrder
func ToModelExchangeOrder(d domain.ExchangeOrder) models.ExchangeOrder {
	return models.ExchangeOrder{
		OrderID:             d.ID,
		MerchantID:          d.MerchantID,
		QuoteID:             d.QuoteID,
		PlannedSellCurrency: d.PlannedSellCurrency,
		PlannedSellAmount:   d.PlannedSellAmount,
		PlannedBuyCurrency:  d.PlannedBuyCurrency,
		PlannedBuyAmount:    d.PlannedBuyAmount,
		CustomerRate:        d.CustomerRate,
		OrderStatus:         string(d.OrderStatus),
		ChannelID:           d.ChannelID,
		ChannelInquiryID:    d.ChannelInquiryID,
		ChannelOrderID:      d.ChannelOrderID,
		ActualSellAmount:    d.ActualSellAmount,
		ActualBuyAmount:     d.ActualBuyAmount,
		ActualRate:          d.ActualRate,
		CostAmount:          d.CostAmount,
		ProfitAmount:        d.ProfitAmount,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
		ExecutedAt:          d.ExecutedAt,
		CompletedAt:         d.CompletedAt,
		FailureReason:       d.FailureReason,
	}
}

// ToDomainExchangeOrder converts a model ExchangeOrder to a domain ExchangeOrder
func ToDomainExchangeOrder(m models.ExchangeOrder) domain.ExchangeOrder {
	return domain.ExchangeOrder{
		ID:                  m.OrderID,
		MerchantID:          m.MerchantID,
		QuoteID:             m.QuoteID,
		PlannedSellCurrency: m.PlannedSellCurrency,
		PlannedSellAmount:   m.PlannedSellAmount,
		PlannedBuyCurrency:  m.PlannedBuyCurrency,
		PlannedBuyAmount:    m.PlannedBuyAmount,
		CustomerRate:        m.CustomerRate,
		OrderStatus:         domain.OrderStatus(m.OrderStatus),
		ChannelID:           m.ChannelID,
		ChannelInquiryID:    m.ChannelInquiryID,
		ChannelOrderID:      m.ChannelOrderID,
		ActualSellAmount:    m.ActualSellAmount,
		ActualBuyAmount:     m.ActualBuyAmount,
		ActualRate:          m.ActualRate,
		CostAmount:          m.CostAmount,
		ProfitAmount:        m.ProfitAmount,
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
		ExecutedAt:          utcPtr(m.ExecutedAt),
		CompletedAt:         utcPtr(m.CompletedAt),
		FailureReason:       m.FailureReason,
	}
}

// ToDomainExchangeOrderSlice converts a slice of model ExchangeOrders to domain ExchangeOrders
func ToDomainExchangeOrderSlice(ms []models.ExchangeOrder) []domain.ExchangeOrder {
	if ms == nil {
		return []domain.ExchangeOrder{}
	}
	ds := make([]domain.ExchangeOrder, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainExchangeOrder(m)
	}
	return ds
}

// ToModelOrderEvent converts a domain OrderEvent to a model OrderEvent
func ToModelOrderEvent(d domain.OrderEvent) models.OrderEvent {
	return models.OrderEvent{
		EventID:     d.ID,
		OrderID:     d.OrderID,
		EventType:   string(d.EventType),
		EventData:   d.EventData,
		TriggeredBy: d.TriggeredBy,
		Notes:       d.Notes,
		CreatedAt:   d.CreatedAt,
	}
}

// ToDomainOrderEvent converts a model OrderEvent to a domain OrderEvent
func ToDomainOrderEvent(m models.OrderEvent) domain.OrderEvent {
	return domain.OrderEvent{
		ID:          m.EventID,
		OrderID:     m.OrderID,
		EventType:   domain.EventType(m.EventType),
		EventData:   m.EventData,
		TriggeredBy: m.TriggeredBy,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}
