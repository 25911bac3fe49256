package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/arbitrage"
	"github.com/alanyoungcy/spreadbot/internal/cache/memory"
	"github.com/alanyoungcy/spreadbot/internal/cache/redis"
	"github.com/alanyoungcy/spreadbot/internal/config"
	"github.com/alanyoungcy/spreadbot/internal/domain"
	"github.com/alanyoungcy/spreadbot/internal/exchange"
	"github.com/alanyoungcy/spreadbot/internal/notify"
	"github.com/alanyoungcy/spreadbot/internal/platform/coinpaprika"
	"github.com/alanyoungcy/spreadbot/internal/platform/telegram"
	"github.com/alanyoungcy/spreadbot/internal/service"
	"github.com/alanyoungcy/spreadbot/internal/session"
	"github.com/alanyoungcy/spreadbot/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Quotes   *service.QuoteService
	Ranker   *arbitrage.Ranker
	Sessions *session.Registry
	Catalog  domain.Catalog // nil when disabled

	// Caches and coordination. Redis-backed when redis.enabled, otherwise
	// in-process. LockManager is nil without Redis.
	QuoteCache  domain.QuoteCache
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager

	// AlertStore is nil unless postgres.enabled.
	AlertStore domain.AlertStore

	// Telegram is nil when no bot token is configured.
	Telegram *telegram.Client
	Ops      *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Sessions: session.NewRegistry(domain.SessionDefaults{
			Pair:            cfg.Scanner.DefaultPair,
			NotifyThreshold: cfg.Scanner.NotifyThreshold,
			Locale:          cfg.Scanner.DefaultLocale,
		}),
	}

	// --- Redis (optional; in-process fallbacks otherwise) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.QuoteCache = redis.NewQuoteCache(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
	} else {
		deps.QuoteCache = memory.NewQuoteCache()
		deps.SignalBus = memory.NewSignalBus()
		deps.RateLimiter = memory.NewRateLimiter()
	}

	// --- PostgreSQL alert log (optional) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.AlertStore = postgres.NewAlertStore(pgClient.Pool())
	}

	// --- Exchanges, aggregation and ranking ---
	adapters, err := exchange.New(exchange.Config{
		Enabled:       cfg.Exchanges.Enabled,
		Timeout:       cfg.Exchanges.Timeout.Duration,
		RatePerSecond: cfg.Exchanges.RatePerSecond,
		Burst:         cfg.Exchanges.Burst,
		BaseURLs:      cfg.Exchanges.BaseURLs,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: exchanges: %w", err)
	}
	sources := make([]service.QuoteSource, len(adapters))
	for i, a := range adapters {
		sources[i] = a
	}
	deps.Quotes = service.NewQuoteService(sources, service.QuoteServiceConfig{
		Concurrency: len(sources),
		Cache:       deps.QuoteCache,
		CacheTTL:    cfg.Scanner.CacheTTL.Duration,
	}, logger)
	deps.Ranker = arbitrage.NewRanker(deps.Quotes, cfg.Scanner.Concurrency, logger)

	// --- Catalog ---
	if cfg.Catalog.Enabled {
		deps.Catalog = coinpaprika.NewClient(coinpaprika.Config{
			BaseURL:  cfg.Catalog.BaseURL,
			Timeout:  cfg.Catalog.Timeout.Duration,
			CoinsTTL: cfg.Catalog.CoinsTTL.Duration,
		})
	}

	// --- Telegram and operator channels ---
	if cfg.Telegram.Token != "" {
		deps.Telegram = telegram.NewClient(cfg.Telegram.BaseURL, cfg.Telegram.Token, telegramTimeout(cfg.Telegram))
	}
	var senders []notify.Sender
	if deps.Telegram != nil && cfg.Notify.TelegramChatID != 0 {
		senders = append(senders, notify.NewTelegramSender(deps.Telegram, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL, cfg.Notify.DiscordUsername))
	}
	deps.Ops = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// telegramTimeout returns an HTTP timeout long enough to cover a getUpdates
// long poll.
func telegramTimeout(cfg config.TelegramConfig) time.Duration {
	pollBound := time.Duration(cfg.PollTimeout)*time.Second + 10*time.Second
	return max(cfg.RequestTimeout.Duration, pollBound)
}
