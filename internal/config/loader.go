package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies environment overrides, and returns the final
// Config. A missing file (or an empty path) leaves the defaults in place. The
// returned Config has NOT been validated; call Config.Validate after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides reads SPREADBOT_* environment variables and overwrites the
// corresponding Config fields when a variable is set. TELEGRAM_BOT_TOKEN and
// PORT are honoured first so the prefixed names win when both are present.
func applyEnvOverrides(cfg *Config) error {
	// ── Platform names ──
	setStr(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	setInt(&cfg.Server.Port, "PORT")

	// ── Telegram ──
	setStr(&cfg.Telegram.Token, "SPREADBOT_TELEGRAM_TOKEN")
	setStr(&cfg.Telegram.BaseURL, "SPREADBOT_TELEGRAM_BASE_URL")
	setInt(&cfg.Telegram.PollTimeout, "SPREADBOT_TELEGRAM_POLL_TIMEOUT")
	setDuration(&cfg.Telegram.RetryDelay, "SPREADBOT_TELEGRAM_RETRY_DELAY")
	setDuration(&cfg.Telegram.RequestTimeout, "SPREADBOT_TELEGRAM_REQUEST_TIMEOUT")
	setBool(&cfg.Telegram.InstanceLock, "SPREADBOT_TELEGRAM_INSTANCE_LOCK")

	// ── Scanner ──
	setDuration(&cfg.Scanner.TickPeriod, "SPREADBOT_SCANNER_TICK_PERIOD")
	setDuration(&cfg.Scanner.ScanPeriod, "SPREADBOT_SCANNER_SCAN_PERIOD")
	if err := setPairs(&cfg.Scanner.Watchlist, "SPREADBOT_SCANNER_WATCHLIST"); err != nil {
		return err
	}
	if err := setPair(&cfg.Scanner.DefaultPair, "SPREADBOT_SCANNER_DEFAULT_PAIR"); err != nil {
		return err
	}
	setFloat64(&cfg.Scanner.NotifyThreshold, "SPREADBOT_SCANNER_NOTIFY_THRESHOLD")
	setStr(&cfg.Scanner.DefaultLocale, "SPREADBOT_SCANNER_DEFAULT_LOCALE")
	setInt(&cfg.Scanner.TopK, "SPREADBOT_SCANNER_TOP_K")
	setInt(&cfg.Scanner.NewTokensLimit, "SPREADBOT_SCANNER_NEW_TOKENS_LIMIT")
	setInt(&cfg.Scanner.Concurrency, "SPREADBOT_SCANNER_CONCURRENCY")
	setDuration(&cfg.Scanner.CacheTTL, "SPREADBOT_SCANNER_CACHE_TTL")
	setInt(&cfg.Scanner.CommandLimit, "SPREADBOT_SCANNER_COMMAND_LIMIT")
	setDuration(&cfg.Scanner.CommandWindow, "SPREADBOT_SCANNER_COMMAND_WINDOW")

	// ── Exchanges ──
	setStringSlice(&cfg.Exchanges.Enabled, "SPREADBOT_EXCHANGES_ENABLED")
	setDuration(&cfg.Exchanges.Timeout, "SPREADBOT_EXCHANGES_TIMEOUT")
	setFloat64(&cfg.Exchanges.RatePerSecond, "SPREADBOT_EXCHANGES_RATE_PER_SECOND")
	setInt(&cfg.Exchanges.Burst, "SPREADBOT_EXCHANGES_BURST")

	// ── Catalog ──
	setBool(&cfg.Catalog.Enabled, "SPREADBOT_CATALOG_ENABLED")
	setStr(&cfg.Catalog.BaseURL, "SPREADBOT_CATALOG_BASE_URL")
	setDuration(&cfg.Catalog.Timeout, "SPREADBOT_CATALOG_TIMEOUT")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "SPREADBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "SPREADBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SPREADBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SPREADBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SPREADBOT_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "SPREADBOT_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "SPREADBOT_REDIS_KEY_PREFIX")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "SPREADBOT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "SPREADBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SPREADBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SPREADBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SPREADBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SPREADBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SPREADBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SPREADBOT_POSTGRES_SSL_MODE")
	setBool(&cfg.Postgres.RunMigrations, "SPREADBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SPREADBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SPREADBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SPREADBOT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SPREADBOT_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "SPREADBOT_SERVER_RATE_LIMIT")

	// ── Notify ──
	setInt64(&cfg.Notify.TelegramChatID, "SPREADBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SPREADBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SPREADBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "SPREADBOT_MODE")
	setStr(&cfg.LogLevel, "SPREADBOT_LOG_LEVEL")
	return nil
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return cleaned
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		if cleaned := splitList(v); len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

// Pair overrides fail loudly: a typo in the watchlist would silently shrink it.
func setPair(dst *domain.Pair, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	p, err := domain.ParsePair(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = p
	return nil
}

func setPairs(dst *[]domain.Pair, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	items := splitList(v)
	pairs := make([]domain.Pair, 0, len(items))
	for _, item := range items {
		p, err := domain.ParsePair(item)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		pairs = append(pairs, p)
	}
	if len(pairs) > 0 {
		*dst = pairs
	}
	return nil
}
