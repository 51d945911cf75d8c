package services

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/metrics"
)

// DefaultSweepInterval is how often stale quote locks are expired.
const DefaultSweepInterval = 5 * time.Second

// ExpirySweeper periodically moves locked quote locks past their expiry to expired.
// It races consumers through the same conditional update, so a lock is either used or
// expired, never both.
type ExpirySweeper struct {
	interval time.Duration
	locks    portssvc.QuoteLockWriterSvc
	logger   *slog.Logger
}

// NewExpirySweeper creates a sweeper ticking every interval.
func NewExpirySweeper(locks portssvc.QuoteLockWriterSvc, interval time.Duration, logger *slog.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpirySweeper{
		interval: interval,
		locks:    locks,
		logger:   logger.With(slog.String("component", "expiry_sweeper")),
	}
}

var _ portssvc.BackgroundWorker = (*ExpirySweeper)(nil)

// Name implements portssvc.BackgroundWorker
func (e *ExpirySweeper) Name() string { return "expiry_sweeper" }

// Start launches a background goroutine that ticks at the configured
// interval and expires locks. It stops when ctx is cancelled.
func (e *ExpirySweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				e.logger.Info("Expiry sweeper stopped")
				return
			case <-ticker.C:
				e.tick(ctx)
			}
		}
	}()
}

func (e *ExpirySweeper) tick(ctx context.Context) {
	start := time.Now()
	n, err := e.locks.ExpireStaleLocks(ctx)
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		e.logger.Error("Quote lock sweep failed", slog.String("error", err.Error()), slog.Int("expired", n))
		return
	}
	if n > 0 {
		e.logger.Info("Expired stale quote locks", slog.Int("expired", n))
	}
}
