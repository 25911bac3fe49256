// Package config defines the top-level configuration for the spread bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// Config is the root configuration structure. Fields are populated from an
// optional TOML file and then overridden by SPREADBOT_* environment variables.
type Config struct {
	Telegram  TelegramConfig  `toml:"telegram"`
	Scanner   ScannerConfig   `toml:"scanner"`
	Exchanges ExchangesConfig `toml:"exchanges"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Redis     RedisConfig     `toml:"redis"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// TelegramConfig holds Bot API credentials and long-poll tuning.
type TelegramConfig struct {
	Token          string   `toml:"token"`
	BaseURL        string   `toml:"base_url"`
	PollTimeout    int      `toml:"poll_timeout"` // seconds
	RetryDelay     duration `toml:"retry_delay"`
	RequestTimeout duration `toml:"request_timeout"`
	// InstanceLock guards against two processes polling the same bot token.
	// Requires redis.enabled.
	InstanceLock bool `toml:"instance_lock"`
}

// ScannerConfig holds spread detection and auto-watcher parameters.
type ScannerConfig struct {
	TickPeriod      duration      `toml:"tick_period"`
	ScanPeriod      duration      `toml:"scan_period"`
	Watchlist       []domain.Pair `toml:"watchlist"`
	DefaultPair     domain.Pair   `toml:"default_pair"`
	NotifyThreshold float64       `toml:"notify_threshold"` // percent
	DefaultLocale   string        `toml:"default_locale"`
	TopK            int           `toml:"top_k"`
	NewTokensLimit  int           `toml:"new_tokens_limit"`
	Concurrency     int           `toml:"concurrency"`
	CacheTTL        duration      `toml:"cache_ttl"` // zero disables the quote cache
	CommandLimit    int           `toml:"command_limit"`
	CommandWindow   duration      `toml:"command_window"`
}

// ExchangesConfig selects and tunes the exchange adapters.
type ExchangesConfig struct {
	Enabled       []string          `toml:"enabled"`
	Timeout       duration          `toml:"timeout"`
	RatePerSecond float64           `toml:"rate_per_second"`
	Burst         int               `toml:"burst"`
	BaseURLs      map[string]string `toml:"base_urls"`
}

// CatalogConfig configures the CoinPaprika asset catalog.
type CatalogConfig struct {
	Enabled  bool     `toml:"enabled"`
	BaseURL  string   `toml:"base_url"`
	Timeout  duration `toml:"timeout"`
	CoinsTTL duration `toml:"coins_ttl"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	KeyPrefix  string   `toml:"key_prefix"`
	LockTTL    duration `toml:"lock_ttl"`
}

// PostgresConfig holds connection parameters for the alert log.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"` // requests per rate_window per IP
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds operator channel settings. The Telegram ops chat reuses
// the bot token.
type NotifyConfig struct {
	TelegramChatID    int64    `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	DiscordUsername   string   `toml:"discord_username"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Telegram: TelegramConfig{
			BaseURL:        "https://api.telegram.org",
			PollTimeout:    25,
			RetryDelay:     duration{2 * time.Second},
			RequestTimeout: duration{10 * time.Second},
		},
		Scanner: ScannerConfig{
			TickPeriod: duration{5 * time.Second},
			ScanPeriod: duration{30 * time.Second},
			Watchlist: domain.MustParsePairs(
				"BTC", "ETH", "BNB", "SOL", "XRP", "TON", "DOGE", "ADA", "TRX", "ZIL",
			),
			DefaultPair:     domain.MustPair("BTC"),
			NotifyThreshold: 0.10,
			DefaultLocale:   "en",
			TopK:            5,
			NewTokensLimit:  10,
			Concurrency:     8,
			CommandLimit:    10,
			CommandWindow:   duration{time.Minute},
		},
		Exchanges: ExchangesConfig{
			Enabled: []string{"binance", "bitget", "mexc", "htx", "kucoin", "bybit", "okx", "gate"},
			Timeout: duration{10 * time.Second},
		},
		Catalog: CatalogConfig{
			Enabled:  true,
			BaseURL:  "https://api.coinpaprika.com/v1",
			Timeout:  duration{15 * time.Second},
			CoinsTTL: duration{10 * time.Minute},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			KeyPrefix:  "spreadbot",
			LockTTL:    duration{30 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "spreadbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  5,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Server: ServerConfig{
			Enabled:    true,
			Port:       8080,
			RateWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity", "startup", "shutdown"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"full":   true,
	"server": true,
	"scan":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidationError lists every problem found by Validate. It unwraps to
// domain.ErrMissingToken when the bot token is the problem.
type ValidationError struct {
	Problems []string
	err      error
}

func (e *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(e.Problems, "\n  - ")
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var (
		errs  []string
		cause error
	)
	mode := strings.ToLower(c.Mode)

	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: full, server, scan)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Telegram is only needed when the bot runs.
	if mode == "full" {
		if strings.TrimSpace(c.Telegram.Token) == "" {
			errs = append(errs, "telegram: token must be set for mode full (TELEGRAM_BOT_TOKEN)")
			cause = domain.ErrMissingToken
		}
		if c.Telegram.PollTimeout < 0 {
			errs = append(errs, "telegram: poll_timeout must be >= 0")
		}
		if c.Telegram.InstanceLock && !c.Redis.Enabled {
			errs = append(errs, "telegram: instance_lock requires redis.enabled")
		}
	}

	// Scanner
	if c.Scanner.TickPeriod.Duration <= 0 {
		errs = append(errs, "scanner: tick_period must be > 0")
	}
	if c.Scanner.ScanPeriod.Duration <= 0 {
		errs = append(errs, "scanner: scan_period must be > 0")
	}
	if len(c.Scanner.Watchlist) == 0 {
		errs = append(errs, "scanner: watchlist must not be empty")
	}
	if c.Scanner.DefaultPair.IsZero() {
		errs = append(errs, "scanner: default_pair must be set")
	}
	if c.Scanner.NotifyThreshold < 0 {
		errs = append(errs, "scanner: notify_threshold must be >= 0")
	}
	if c.Scanner.TopK < 1 {
		errs = append(errs, "scanner: top_k must be >= 1")
	}
	if c.Scanner.Concurrency < 1 {
		errs = append(errs, "scanner: concurrency must be >= 1")
	}
	if c.Scanner.CacheTTL.Duration < 0 {
		errs = append(errs, "scanner: cache_ttl must be >= 0")
	}
	if c.Scanner.CommandLimit > 0 && c.Scanner.CommandWindow.Duration <= 0 {
		errs = append(errs, "scanner: command_window must be > 0 when command_limit is set")
	}

	// Exchanges
	if len(c.Exchanges.Enabled) == 0 {
		errs = append(errs, "exchanges: enabled must list at least one exchange")
	}
	if c.Exchanges.Timeout.Duration <= 0 {
		errs = append(errs, "exchanges: timeout must be > 0")
	}
	if c.Exchanges.RatePerSecond < 0 {
		errs = append(errs, "exchanges: rate_per_second must be >= 0")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.LockTTL.Duration <= 0 {
			errs = append(errs, "redis: lock_ttl must be > 0")
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Server
	if c.Server.Enabled || mode == "server" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs, err: cause}
	}
	return nil
}
