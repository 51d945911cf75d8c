package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/metrics"
)

// RateRefresherConfig controls the rate polling worker.
type RateRefresherConfig struct {
	Channels       []string
	Pairs          []domain.CurrencyPair
	Interval       time.Duration
	Validity       time.Duration
	ChannelTimeout time.Duration
	StoreTimeout   time.Duration
}

// RateRefresher polls every channel for every pair and appends the results to the rate store.
// A pair whose fetches keep failing goes stale and quotes for it become RateUnavailable.
type RateRefresher struct {
	cfg      RateRefresherConfig
	gateway  portssvc.ChannelGateway
	rateRepo portsrepo.RateWriter
	clock    func() time.Time
	logger   *slog.Logger
}

// NewRateRefresher creates the polling worker.
func NewRateRefresher(gateway portssvc.ChannelGateway, rateRepo portsrepo.RateWriter, cfg RateRefresherConfig, logger *slog.Logger) *RateRefresher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Validity <= 0 {
		cfg.Validity = 5 * time.Minute
	}
	if cfg.ChannelTimeout <= 0 {
		cfg.ChannelTimeout = DefaultChannelTimeout
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RateRefresher{
		cfg:      cfg,
		gateway:  gateway,
		rateRepo: rateRepo,
		clock:    time.Now,
		logger:   logger.With(slog.String("component", "rate_refresher")),
	}
}

var _ portssvc.BackgroundWorker = (*RateRefresher)(nil)

// Name implements portssvc.BackgroundWorker
func (r *RateRefresher) Name() string { return "rate_refresher" }

// Start fetches once immediately, then on every tick until ctx is cancelled.
func (r *RateRefresher) Start(ctx context.Context) {
	r.RefreshAll(ctx)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("Rate refresher panic recovered", slog.Any("panic", rec))
			}
		}()

		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				r.logger.Info("Rate refresher stopped")
				return
			case <-ticker.C:
				r.RefreshAll(ctx)
			}
		}
	}()
}

// RefreshAll fetches and stores one rate per channel and pair. It returns how many were stored.
func (r *RateRefresher) RefreshAll(ctx context.Context) int {
	stored := 0
	for _, channelID := range r.cfg.Channels {
		for _, pair := range r.cfg.Pairs {
			if ctx.Err() != nil {
				return stored
			}
			if r.refresh(ctx, channelID, pair) {
				stored++
			}
		}
	}
	return stored
}

func (r *RateRefresher) refresh(ctx context.Context, channelID string, pair domain.CurrencyPair) bool {
	log := r.logger.With(slog.String("channel_id", channelID), slog.String("currency_pair", pair.String()))

	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.ChannelTimeout)
	start := time.Now()
	raw, err := r.gateway.FetchRate(fetchCtx, channelID, pair)
	metrics.ChannelCallLatency.WithLabelValues(channelID, "fetch_rate").Observe(time.Since(start).Seconds())
	cancel()
	if err != nil {
		metrics.RateFetches.WithLabelValues(channelID, "error").Inc()
		log.Warn("Rate fetch failed", slog.String("error", err.Error()))
		return false
	}

	rate := *raw
	rate.ChannelID = channelID
	rate.CurrencyPair = pair
	if rate.FetchTime.IsZero() {
		rate.FetchTime = r.clock().UTC()
	}
	rate.ValidUntil = rate.FetchTime.Add(r.cfg.Validity)
	if !rate.IsWellFormed() {
		metrics.RateFetches.WithLabelValues(channelID, "rejected").Inc()
		log.Warn("Rejected malformed rate",
			slog.String("bid", rate.BidRate.String()),
			slog.String("ask", rate.AskRate.String()),
			slog.String("mid", rate.MidRate.String()))
		return false
	}

	storeCtx, cancel := context.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()
	if err := r.rateRepo.SaveRate(storeCtx, rate); err != nil {
		metrics.RateFetches.WithLabelValues(channelID, "error").Inc()
		log.Error("Failed to store rate", slog.String("error", err.Error()))
		return false
	}
	metrics.RateFetches.WithLabelValues(channelID, "ok").Inc()
	return true
}
