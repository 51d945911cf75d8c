package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool
	LogLevel     string

	DatabaseURL    string
	StorageDriver  string
	MigrationsPath string

	// Event bus. An empty RabbitMQURL logs events instead of publishing them.
	RabbitMQURL    string
	EventExchange  string
	EventQueueSize int

	QuoteLockDuration    time.Duration
	LockSweepInterval    time.Duration
	StoreTimeout         time.Duration
	ChannelTimeout       time.Duration
	RateFetchInterval    time.Duration
	RateValidityDuration time.Duration
	ShutdownTimeout      time.Duration

	// Channels in routing priority order.
	Channels      []string
	ChannelLimits map[string]domain.ChannelLimits
	CurrencyPairs []domain.CurrencyPair
	RateLimit     string
	CORSOrigins   []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EVENT_EXCHANGE", "fx.events")
	v.SetDefault("EVENT_QUEUE_SIZE", 1024)
	v.SetDefault("QUOTE_LOCK_DURATION", "30s")
	v.SetDefault("LOCK_SWEEP_INTERVAL", "5s")
	v.SetDefault("STORE_TIMEOUT", "2s")
	v.SetDefault("CHANNEL_TIMEOUT", "5s")
	v.SetDefault("RATE_FETCH_INTERVAL", "60s")
	v.SetDefault("RATE_VALIDITY_DURATION", "5m")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("CHANNELS", strings.Join([]string{domain.ChannelPHP, domain.ChannelBOCHK, domain.ChannelLEPTAGE}, ","))
	v.SetDefault("CHANNEL_LIMITS", "")
	v.SetDefault("DISABLED_CHANNELS", "")
	v.SetDefault("CURRENCY_PAIRS", "USD/HKD,USD/CNY,EUR/USD,USD/JPY")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:           v.GetString("PORT"),
		IsProduction:   v.GetBool("IS_PRODUCTION"),
		LogLevel:       strings.ToLower(v.GetString("LOG_LEVEL")),
		DatabaseURL:    v.GetString("PGSQL_URL"),
		StorageDriver:  strings.ToLower(v.GetString("STORAGE_DRIVER")),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		EventExchange:  v.GetString("EVENT_EXCHANGE"),
		EventQueueSize: v.GetInt("EVENT_QUEUE_SIZE"),
		RateLimit:      v.GetString("RATE_LIMIT"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL must be set when STORAGE_DRIVER=%s", StoragePostgres)
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (want %s or %s)", cfg.StorageDriver, StoragePostgres, StorageMemory)
	}

	if cfg.EventQueueSize <= 0 {
		cfg.EventQueueSize = 1024
		log.Printf("Warning: EVENT_QUEUE_SIZE must be positive. Defaulting to %d.\n", cfg.EventQueueSize)
	}

	cfg.QuoteLockDuration = durationOrDefault(v, "QUOTE_LOCK_DURATION", 30*time.Second)
	cfg.LockSweepInterval = durationOrDefault(v, "LOCK_SWEEP_INTERVAL", 5*time.Second)
	cfg.StoreTimeout = durationOrDefault(v, "STORE_TIMEOUT", 2*time.Second)
	cfg.ChannelTimeout = durationOrDefault(v, "CHANNEL_TIMEOUT", 5*time.Second)
	cfg.RateFetchInterval = durationOrDefault(v, "RATE_FETCH_INTERVAL", time.Minute)
	cfg.RateValidityDuration = durationOrDefault(v, "RATE_VALIDITY_DURATION", 5*time.Minute)
	cfg.ShutdownTimeout = durationOrDefault(v, "SHUTDOWN_TIMEOUT", 10*time.Second)

	cfg.Channels = splitList(v.GetString("CHANNELS"), strings.ToUpper)
	if len(cfg.Channels) == 0 {
		return nil, fmt.Errorf("CHANNELS must name at least one channel")
	}

	limits, err := parseChannelLimits(v.GetString("CHANNEL_LIMITS"), splitList(v.GetString("DISABLED_CHANNELS"), strings.ToUpper))
	if err != nil {
		return nil, err
	}
	cfg.ChannelLimits = limits

	for _, raw := range splitList(v.GetString("CURRENCY_PAIRS"), strings.ToUpper) {
		pair, err := domain.ParseCurrencyPair(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CURRENCY_PAIRS entry: %w", err)
		}
		cfg.CurrencyPairs = append(cfg.CurrencyPairs, pair)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"), strings.TrimSpace)

	return cfg, nil
}

// durationOrDefault parses key as a duration, falling back to def with a warning when it is missing,
// malformed or not positive.
func durationOrDefault(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		}
		return def
	}
	return d
}

// parseChannelLimits reads CHANNEL_LIMITS entries of the form CHANNEL:min:max. Either bound
// may be left empty.
func parseChannelLimits(raw string, disabled []string) (map[string]domain.ChannelLimits, error) {
	limits := make(map[string]domain.ChannelLimits)
	for _, entry := range splitList(raw, strings.ToUpper) {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid CHANNEL_LIMITS entry %q (want CHANNEL:min:max)", entry)
		}
		var l domain.ChannelLimits
		for i, dst := range []*decimal.Decimal{&l.MinAmount, &l.MaxAmount} {
			bound := strings.TrimSpace(parts[i+1])
			if bound == "" {
				continue
			}
			d, err := decimal.NewFromString(bound)
			if err != nil || d.IsNegative() {
				return nil, fmt.Errorf("invalid CHANNEL_LIMITS bound %q for %s", bound, parts[0])
			}
			*dst = d
		}
		if !l.MaxAmount.IsZero() && l.MinAmount.GreaterThan(l.MaxAmount) {
			return nil, fmt.Errorf("CHANNEL_LIMITS for %s has min above max", parts[0])
		}
		limits[strings.TrimSpace(parts[0])] = l
	}
	for _, channelID := range disabled {
		l := limits[channelID]
		l.Disabled = true
		limits[channelID] = l
	}
	return limits, nil
}

func splitList(raw string, normalize func(string) string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, normalize(part))
	}
	return out
}
