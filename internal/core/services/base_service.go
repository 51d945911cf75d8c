package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/middleware"
)

// defaultStoreTimeout bounds every store call when no timeout is configured.
const defaultStoreTimeout = 2 * time.Second

// BaseService provides common functionality for all services
type BaseService struct {
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// StoreTimeout bounds each repository call.
	StoreTimeout time.Duration
}

// BaseOption configures the BaseService embedded in every service.
type BaseOption func(*BaseService)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock func() time.Time) BaseOption {
	return func(b *BaseService) {
		b.Clock = clock
	}
}

// WithStoreTimeout sets the per-call store timeout.
func WithStoreTimeout(d time.Duration) BaseOption {
	return func(b *BaseService) {
		if d > 0 {
			b.StoreTimeout = d
		}
	}
}

func newBaseService(opts ...BaseOption) BaseService {
	b := BaseService{Clock: time.Now, StoreTimeout: defaultStoreTimeout}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (s *BaseService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock().UTC()
}

// withStoreTimeout derives a ctx bounded by StoreTimeout.
func (s *BaseService) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	d := s.StoreTimeout
	if d <= 0 {
		d = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, d)
}

// storeErr wraps a repository error, turning a blown deadline into ErrTimeout so an
// unreachable store is never confused with a missing row.
func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, apperrors.ErrTimeout) {
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs an anomaly that did not fail the process
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}
