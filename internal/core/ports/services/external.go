package services

import (
	"context"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
)

// ChannelGateway is the request/response boundary to liquidity channels.
// Transport failures come back as plain errors; callers decide how they map.
type ChannelGateway interface {
	FetchRate(ctx context.Context, channelID string, pair domain.CurrencyPair) (*domain.RawRate, error)
	SubmitInquiry(ctx context.Context, channelID string, order domain.ExchangeOrder) (*domain.ChannelInquiry, error)
	SubmitExecution(ctx context.Context, channelID string, order domain.ExchangeOrder, inquiry domain.ChannelInquiry) (*domain.ChannelExecution, error)
}

// EventPublisher hands messages to the event bus. The returned error is advisory.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, msg domain.EventMessage) error
}
