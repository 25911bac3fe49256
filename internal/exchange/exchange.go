// Package exchange implements the per-venue quote adapters. Each adapter maps a
// canonical pair to the venue's native symbol, issues one bounded REST request
// and parses the best bid and ask. Any failure yields an absent quote that is
// logged and never propagated.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

var errMissingField = errors.New("missing bid/ask in response")

// venue describes one exchange's REST book-ticker endpoint.
type venue struct {
	name     string
	label    string
	baseURL  string
	endpoint string
	style    domain.SymbolStyle
	query    func(symbol string) url.Values
	decode   func(body []byte) (bid, ask float64, err error)
}

// Adapter fetches quotes from a single exchange.
type Adapter struct {
	v       venue
	client  *httpClient
	timeout time.Duration
	logger  *slog.Logger
}

// Name returns the registry key of the exchange.
func (a *Adapter) Name() string { return a.v.name }

// Label returns the display label of the exchange.
func (a *Adapter) Label() string { return a.v.label }

// Symbol returns the exchange-native symbol for pair.
func (a *Adapter) Symbol(pair domain.Pair) string { return pair.Symbol(a.v.style) }

// Quote returns the exchange's best bid and ask for pair. The boolean is false
// when the exchange did not answer with a usable quote; the cause is logged.
func (a *Adapter) Quote(ctx context.Context, pair domain.Pair) (domain.Quote, bool) {
	symbol := a.Symbol(pair)
	bid, ask, err := a.fetch(ctx, symbol)
	if err == nil && (bid <= 0 || ask <= 0) {
		err = fmt.Errorf("non-positive quote bid=%v ask=%v", bid, ask)
	}
	if err != nil {
		a.logger.WarnContext(ctx, "quote fetch failed",
			slog.String("exchange", a.v.name),
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		return domain.Quote{}, false
	}
	return domain.Quote{Exchange: a.v.name, Label: a.v.label, Bid: bid, Ask: ask}, true
}

func (a *Adapter) fetch(ctx context.Context, symbol string) (float64, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	endpoint := strings.TrimRight(a.v.baseURL, "/") + a.v.endpoint
	body, err := a.client.get(ctx, endpoint, a.v.query(symbol))
	if err != nil {
		return 0, 0, err
	}
	bid, ask, err := a.v.decode(body)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: decode: %w", a.v.name, err)
	}
	return bid, ask, nil
}

// Config controls how adapters are built.
type Config struct {
	// Enabled lists exchanges in iteration order. Empty means DefaultNames.
	Enabled []string
	// Timeout bounds each outbound request.
	Timeout time.Duration
	// RatePerSecond and Burst bound outbound requests per exchange. Zero
	// disables limiting.
	RatePerSecond float64
	Burst         int
	// BaseURLs overrides the API root per exchange.
	BaseURLs map[string]string
}

// DefaultNames is the default adapter order.
var DefaultNames = []string{"binance", "bitget", "mexc", "htx", "kucoin", "bybit", "okx", "gate"}

var venues = map[string]func() venue{
	"binance": binance,
	"bitget":  bitget,
	"mexc":    mexc,
	"htx":     htx,
	"kucoin":  kucoin,
	"bybit":   bybit,
	"okx":     okx,
	"gate":    gate,
}

// Known reports whether name is a supported exchange.
func Known(name string) bool {
	_, ok := venues[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// New builds the adapter set in the configured order.
func New(cfg Config, logger *slog.Logger) ([]*Adapter, error) {
	names := cfg.Enabled
	if len(names) == 0 {
		names = DefaultNames
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger = logger.With(slog.String("component", "exchange"))

	seen := make(map[string]bool, len(names))
	out := make([]*Adapter, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		ctor, ok := venues[name]
		if !ok {
			return nil, fmt.Errorf("exchange: unknown exchange %q", raw)
		}
		if seen[name] {
			return nil, fmt.Errorf("exchange: duplicate exchange %q", raw)
		}
		seen[name] = true

		v := ctor()
		if override := cfg.BaseURLs[name]; override != "" {
			v.baseURL = override
		}
		var limiter *rate.Limiter
		if cfg.RatePerSecond > 0 {
			burst := cfg.Burst
			if burst < 1 {
				burst = 1
			}
			limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
		}
		out = append(out, &Adapter{
			v:       v,
			client:  newHTTPClient(timeout, limiter),
			timeout: timeout,
			logger:  logger,
		})
	}
	return out, nil
}
