package services

import (
	"context"
)

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	MarkupResolver MarkupResolverSvc
	RateCalculator RateCalculatorSvc
	QuoteLock      QuoteLockSvcFacade
	Order          OrderSvcFacade

	// Workers are started by main and stopped through their context.
	Workers []BackgroundWorker
}

// BackgroundWorker is a periodic task bound to the process lifetime.
type BackgroundWorker interface {
	// Start launches the worker in its own goroutine. It returns once the worker is running
	// and stops when ctx is cancelled.
	Start(ctx context.Context)

	// Name identifies the worker in logs.
	Name() string
}
