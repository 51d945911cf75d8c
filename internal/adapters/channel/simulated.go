package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
)

// inquiryTTL is how long a simulated inquiry may be executed.
const inquiryTTL = 30 * time.Second

// Default half spreads as a fraction of mid, per channel.
var defaultHalfSpreads = map[string]decimal.Decimal{
	domain.ChannelPHP:     decimal.RequireFromString("0.0005"),
	domain.ChannelBOCHK:   decimal.RequireFromString("0.0008"),
	domain.ChannelLEPTAGE: decimal.RequireFromString("0.0010"),
}

// SimulatedGateway is an in-process liquidity channel. It quotes around mid rates set by the
// caller and fills inquiries at the side rate of the trade, charging a proportional fee in the
// buy currency. It is used for local runs and tests.
type SimulatedGateway struct {
	mu          sync.Mutex
	mids        map[domain.CurrencyPair]decimal.Decimal
	halfSpreads map[string]decimal.Decimal
	down        map[string]bool
	inquiries   map[string]domain.ChannelInquiry
	fills       []domain.ChannelExecution

	feeRate decimal.Decimal
	latency time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a SimulatedGateway.
type Option func(*SimulatedGateway)

// WithFeeRate sets the fee charged on the buy amount, as a fraction.
func WithFeeRate(rate decimal.Decimal) Option {
	return func(g *SimulatedGateway) { g.feeRate = rate }
}

// WithLatency delays every call by d, or until the caller's context is done.
func WithLatency(d time.Duration) Option {
	return func(g *SimulatedGateway) { g.latency = d }
}

// WithHalfSpread overrides the half spread of one channel.
func WithHalfSpread(channelID string, fraction decimal.Decimal) Option {
	return func(g *SimulatedGateway) { g.halfSpreads[strings.ToUpper(channelID)] = fraction }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *SimulatedGateway) { g.now = now }
}

// WithLogger sets the logger used for fills.
func WithLogger(logger *slog.Logger) Option {
	return func(g *SimulatedGateway) { g.logger = logger }
}

// NewSimulatedGateway creates a gateway quoting the given mid rates.
func NewSimulatedGateway(mids map[domain.CurrencyPair]decimal.Decimal, opts ...Option) *SimulatedGateway {
	g := &SimulatedGateway{
		mids:        make(map[domain.CurrencyPair]decimal.Decimal, len(mids)),
		halfSpreads: make(map[string]decimal.Decimal, len(defaultHalfSpreads)),
		down:        make(map[string]bool),
		inquiries:   make(map[string]domain.ChannelInquiry),
		feeRate:     decimal.RequireFromString("0.0002"),
		now:         time.Now,
		logger:      slog.Default(),
	}
	for pair, mid := range mids {
		g.mids[pair] = mid
	}
	for ch, hs := range defaultHalfSpreads {
		g.halfSpreads[ch] = hs
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(slog.String("component", "simulated_channel"))
	return g
}

var _ portssvc.ChannelGateway = (*SimulatedGateway)(nil)

// DefaultMidRates seeds the gateway for local runs.
func DefaultMidRates() map[domain.CurrencyPair]decimal.Decimal {
	return map[domain.CurrencyPair]decimal.Decimal{
		"USD/HKD": decimal.RequireFromString("7.80"),
		"USD/CNY": decimal.RequireFromString("7.24"),
		"USD/JPY": decimal.RequireFromString("151.20"),
		"EUR/USD": decimal.RequireFromString("1.0850"),
		"GBP/USD": decimal.RequireFromString("1.2700"),
	}
}

// SetMidRate moves the market for pair.
func (g *SimulatedGateway) SetMidRate(pair domain.CurrencyPair, mid decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mids[pair] = mid
}

// SetChannelDown makes every call to channelID fail until it is set back.
func (g *SimulatedGateway) SetChannelDown(channelID string, down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.down[strings.ToUpper(channelID)] = down
}

// Fills returns every execution so far.
func (g *SimulatedGateway) Fills() []domain.ChannelExecution {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.ChannelExecution, len(g.fills))
	copy(out, g.fills)
	return out
}

func (g *SimulatedGateway) wait(ctx context.Context) error {
	if g.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(g.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// quoteLocked builds a two-sided quote. Caller holds g.mu.
func (g *SimulatedGateway) quoteLocked(channelID string, pair domain.CurrencyPair) (domain.RawRate, error) {
	channelID = strings.ToUpper(channelID)
	if g.down[channelID] {
		return domain.RawRate{}, fmt.Errorf("channel %s unavailable", channelID)
	}
	hs, ok := g.halfSpreads[channelID]
	if !ok {
		return domain.RawRate{}, fmt.Errorf("unknown channel %s", channelID)
	}
	mid, ok := g.mids[pair]
	if !ok {
		return domain.RawRate{}, fmt.Errorf("no price available for %s on %s", pair, channelID)
	}
	offset := mid.Mul(hs)
	return domain.RawRate{
		ChannelID:    channelID,
		CurrencyPair: pair,
		BidRate:      domain.RoundRate(mid.Sub(offset)),
		AskRate:      domain.RoundRate(mid.Add(offset)),
		MidRate:      domain.RoundRate(mid),
		FetchTime:    g.now().UTC(),
	}, nil
}

// pairFor finds the quoted pair for an order's currencies, in either orientation.
func (g *SimulatedGateway) pairFor(sell, buy string) (domain.CurrencyPair, domain.Direction, error) {
	for _, candidate := range []domain.CurrencyPair{
		domain.CurrencyPair(sell + "/" + buy),
		domain.CurrencyPair(buy + "/" + sell),
	} {
		if _, ok := g.mids[candidate]; ok {
			dir, err := candidate.DirectionFor(sell, buy)
			return candidate, dir, err
		}
	}
	return "", "", fmt.Errorf("no market for %s/%s", sell, buy)
}

// FetchRate implements portssvc.ChannelGateway
func (g *SimulatedGateway) FetchRate(ctx context.Context, channelID string, pair domain.CurrencyPair) (*domain.RawRate, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	rate, err := g.quoteLocked(channelID, pair)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// SubmitInquiry implements portssvc.ChannelGateway
func (g *SimulatedGateway) SubmitInquiry(ctx context.Context, channelID string, order domain.ExchangeOrder) (*domain.ChannelInquiry, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	pair, dir, err := g.pairFor(order.PlannedSellCurrency, order.PlannedBuyCurrency)
	if err != nil {
		return nil, err
	}
	quote, err := g.quoteLocked(channelID, pair)
	if err != nil {
		return nil, err
	}

	inquiry := domain.ChannelInquiry{
		InquiryID:  "INQ-" + uuid.NewString(),
		ChannelID:  quote.ChannelID,
		Rate:       quote.SideRate(dir),
		ValidUntil: quote.FetchTime.Add(inquiryTTL),
	}
	g.inquiries[inquiry.InquiryID] = inquiry
	return &inquiry, nil
}

// SubmitExecution implements portssvc.ChannelGateway
func (g *SimulatedGateway) SubmitExecution(ctx context.Context, channelID string, order domain.ExchangeOrder, inquiry domain.ChannelInquiry) (*domain.ChannelExecution, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.down[strings.ToUpper(channelID)] {
		return nil, fmt.Errorf("channel %s unavailable", channelID)
	}
	stored, ok := g.inquiries[inquiry.InquiryID]
	if !ok {
		return nil, fmt.Errorf("inquiry not found: %s", inquiry.InquiryID)
	}
	now := g.now().UTC()
	if now.After(stored.ValidUntil) {
		return nil, fmt.Errorf("inquiry %s expired at %s", stored.InquiryID, stored.ValidUntil.Format(time.RFC3339))
	}
	_, dir, err := g.pairFor(order.PlannedSellCurrency, order.PlannedBuyCurrency)
	if err != nil {
		return nil, err
	}

	sell := domain.RoundAmount(order.PlannedSellAmount, order.PlannedSellCurrency)
	var buy decimal.Decimal
	if dir == domain.SellBase {
		buy = sell.Mul(stored.Rate)
	} else {
		buy = sell.Div(stored.Rate)
	}
	buy = domain.RoundAmount(buy, order.PlannedBuyCurrency)

	fill := domain.ChannelExecution{
		ChannelOrderID:   "CH-" + uuid.NewString(),
		ActualSellAmount: sell,
		ActualBuyAmount:  buy,
		ActualRate:       stored.Rate,
		Fee:              domain.RoundAmount(buy.Mul(g.feeRate), order.PlannedBuyCurrency),
		ExecutedAt:       now,
	}
	delete(g.inquiries, stored.InquiryID)
	g.fills = append(g.fills, fill)

	g.logger.Info("Simulated execution filled",
		slog.String("channel_id", stored.ChannelID),
		slog.String("order_id", order.ID),
		slog.String("channel_order_id", fill.ChannelOrderID),
		slog.String("rate", fill.ActualRate.String()),
		slog.String("buy_amount", fill.ActualBuyAmount.String()))

	return &fill, nil
}
