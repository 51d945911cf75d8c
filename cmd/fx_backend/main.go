package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/SscSPs/fx_quote_engine/internal/adapters/channel"
	"github.com/SscSPs/fx_quote_engine/internal/adapters/messaging/rabbitmq"
	portsrepo "github.com/SscSPs/fx_quote_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/core/services"
	"github.com/SscSPs/fx_quote_engine/internal/handlers"
	"github.com/SscSPs/fx_quote_engine/internal/middleware"
	"github.com/SscSPs/fx_quote_engine/internal/platform/config"
	"github.com/SscSPs/fx_quote_engine/internal/repositories/database/pgsql"
	"github.com/SscSPs/fx_quote_engine/internal/repositories/memory"
	"github.com/SscSPs/fx_quote_engine/pkg/database"
)

// @title FX Quote Engine API
// @version 1.0
// @description Quote locking and exchange order execution.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	repos, dbPool, err := setupStorage(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)

	publisher, closePublisher := setupPublisher(cfg, logger)
	defer closePublisher()

	gateway := channel.NewSimulatedGateway(channel.DefaultMidRates(), channel.WithLogger(logger))
	container := services.NewServiceContainer(cfg, repos, gateway, publisher, logger)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	for _, w := range container.Workers {
		w.Start(workerCtx)
		logger.Info("Worker started", slog.String("worker", w.Name()))
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	lockLimiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Failed to create rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, lockLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-sigCtx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}

	stopWorkers()
	drainDispatcher(shutdownCtx, container, logger)
	logger.Info("Server exited")
}

// setupStorage returns the repositories for the configured driver. The pool is nil for in-memory storage.
func setupStorage(cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, *pgxpool.Pool, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage; state is lost on restart")
		return memory.NewStore().Provider(), nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{ConnectTimeout: 10 * time.Second})
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}

	return pgsql.NewRepositoryProvider(dbPool), dbPool, nil
}

func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	sourceErr, dbErr := m.Close()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return upErr
	}
	if err := errors.Join(sourceErr, dbErr); err != nil {
		return err
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// setupPublisher dials the broker when one is configured and falls back to logging events.
func setupPublisher(cfg *config.Config, logger *slog.Logger) (portssvc.EventPublisher, func()) {
	if cfg.RabbitMQURL == "" {
		logger.Info("No RabbitMQ URL configured; events will be logged")
		return rabbitmq.NewLogPublisher(logger), func() {}
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.EventExchange, logger)
	if err != nil {
		logger.Warn("RabbitMQ unavailable; events will be logged", slog.String("error", err.Error()))
		return rabbitmq.NewLogPublisher(logger), func() {}
	}
	return publisher, publisher.Close
}

// drainDispatcher waits for queued events to be flushed, bounded by ctx.
func drainDispatcher(ctx context.Context, container *portssvc.ServiceContainer, logger *slog.Logger) {
	for _, w := range container.Workers {
		d, ok := w.(interface{ Done() <-chan struct{} })
		if !ok {
			continue
		}
		select {
		case <-d.Done():
			logger.Info("Worker drained", slog.String("worker", w.Name()))
		case <-ctx.Done():
			logger.Warn("Worker did not drain before shutdown deadline", slog.String("worker", w.Name()))
		}
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	c.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
