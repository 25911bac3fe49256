package config

import (
	"maps"
	"slices"
)

// RedactedConfig returns a copy of cfg with sensitive fields replaced by the
// redaction placeholder "***". Use this when logging the active configuration.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Telegram.Token)
	redact(&out.Redis.Password)
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.Server.APIKey)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy reference types so callers cannot mutate the original through the
	// redacted copy.
	out.Scanner.Watchlist = slices.Clone(cfg.Scanner.Watchlist)
	out.Exchanges.Enabled = slices.Clone(cfg.Exchanges.Enabled)
	out.Exchanges.BaseURLs = maps.Clone(cfg.Exchanges.BaseURLs)
	out.Server.CORSOrigins = slices.Clone(cfg.Server.CORSOrigins)
	out.Notify.Events = slices.Clone(cfg.Notify.Events)
	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
