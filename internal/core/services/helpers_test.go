package services_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/core/services"
	"github.com/SscSPs/fx_quote_engine/internal/dto"
	"github.com/SscSPs/fx_quote_engine/internal/middleware"
	"github.com/SscSPs/fx_quote_engine/internal/repositories/memory"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func usdHkdRate(channelID string, fetched time.Time) domain.RawRate {
	return domain.RawRate{
		ChannelID:    channelID,
		CurrencyPair: "USD/HKD",
		BidRate:      d("7.795"),
		AskRate:      d("7.805"),
		MidRate:      d("7.80"),
		FetchTime:    fetched,
		ValidUntil:   fetched.Add(5 * time.Minute),
	}
}

func platformPips(channelID, value string) domain.PlatformMarkupRule {
	return domain.PlatformMarkupRule{
		ID:            "pr-" + channelID,
		ChannelID:     channelID,
		CurrencyPair:  "USD/HKD",
		MarkupType:    domain.MarkupPips,
		MarkupValue:   d(value),
		EffectiveFrom: t0.Add(-time.Hour),
		IsActive:      true,
	}
}

func sellUSD(amount string) dto.CreateQuoteLockRequest {
	return dto.CreateQuoteLockRequest{
		MerchantID:   "m-1",
		CurrencyPair: "USD/HKD",
		SellCurrency: "USD",
		SellAmount:   d(amount),
		BuyCurrency:  "HKD",
	}
}

// engine wires the real services over the in-memory store.
type engine struct {
	store   *memory.Store
	clock   *fakeClock
	calc    portssvc.RateCalculatorSvc
	locks   portssvc.QuoteLockSvcFacade
	orders  portssvc.OrderSvcFacade
	gateway *MockChannelGateway
	sink    *recordingSink
}

func newEngine(t *testing.T, channelTimeout time.Duration) *engine {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.SaveRate(context.Background(), usdHkdRate(domain.ChannelPHP, t0.Add(-time.Minute))))
	store.AddPlatformMarkupRule(platformPips(domain.ChannelPHP, "20"))

	clock := newFakeClock(t0)
	opts := []services.BaseOption{services.WithClock(clock.Now)}
	repos := store.Provider()

	resolver := services.NewMarkupResolver(repos.MarkupRepo, opts...)
	calc := services.NewRateCalculator(repos.RateRepo, resolver, []string{domain.ChannelPHP, domain.ChannelBOCHK}, opts...)
	locks := services.NewQuoteLockService(repos.TxManager, repos.QuoteLockRepo, calc, 30*time.Second, opts...)

	gateway := new(MockChannelGateway)
	sink := &recordingSink{}
	orders := services.NewOrderService(repos.TxManager, repos.OrderRepo, locks, gateway, sink, channelTimeout, opts...)

	return &engine{
		store:   store,
		clock:   clock,
		calc:    calc,
		locks:   locks,
		orders:  orders,
		gateway: gateway,
		sink:    sink,
	}
}

// capturingCtx returns a ctx whose request logger writes JSON lines into the returned buffer.
func capturingCtx() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return middleware.WithLogger(context.Background(), logger), &buf
}
