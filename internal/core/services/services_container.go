package services

import (
	"log/slog"

	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// The returned workers still have to be started by the caller.
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	gateway portssvc.ChannelGateway,
	publisher portssvc.EventPublisher,
	logger *slog.Logger,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}
	base := []BaseOption{WithStoreTimeout(cfg.StoreTimeout)}

	container.MarkupResolver = NewMarkupResolver(repos.MarkupRepo, base...)
	container.RateCalculator = NewRoutingRateCalculator(repos.RateRepo, container.MarkupResolver, cfg.Channels, cfg.ChannelLimits, base...)
	container.QuoteLock = NewQuoteLockService(repos.TxManager, repos.QuoteLockRepo, container.RateCalculator, cfg.QuoteLockDuration, base...)

	// The dispatcher must be listed first so it is running before anything publishes.
	dispatcher := NewEventDispatcher(publisher, cfg.EventQueueSize, logger)
	container.Order = NewOrderService(repos.TxManager, repos.OrderRepo, container.QuoteLock, gateway, dispatcher, cfg.ChannelTimeout, base...)

	container.Workers = []portssvc.BackgroundWorker{
		dispatcher,
		NewExpirySweeper(container.QuoteLock, cfg.LockSweepInterval, logger),
		NewRateRefresher(gateway, repos.RateRepo, RateRefresherConfig{
			Channels:       cfg.Channels,
			Pairs:          cfg.CurrencyPairs,
			Interval:       cfg.RateFetchInterval,
			Validity:       cfg.RateValidityDuration,
			ChannelTimeout: cfg.ChannelTimeout,
			StoreTimeout:   cfg.StoreTimeout,
		}, logger),
	}

	return container
}
