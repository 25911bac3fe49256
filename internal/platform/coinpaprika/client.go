// Package coinpaprika reads asset metadata from the public CoinPaprika API.
package coinpaprika

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.coinpaprika.com/v1"

// Client implements domain.Catalog. The full coin list is cached for
// CoinsTTL because every lookup needs it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	coinsTTL   time.Duration
	now        func() time.Time

	mu      sync.Mutex
	coins   []apiCoin
	coinsAt time.Time
}

// Config configures the client.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CoinsTTL time.Duration
}

// NewClient creates a CoinPaprika client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		coinsTTL:   cfg.CoinsTTL,
		now:        time.Now,
	}
}

type apiCoin struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	IsNew       bool   `json:"is_new"`
	IsActive    bool   `json:"is_active"`
	FirstDataAt string `json:"first_data_at"`
	LastDataAt  string `json:"last_data_at"`
}

// seenAt is first_data_at, falling back to last_data_at, or the zero time.
func (c apiCoin) seenAt() time.Time {
	for _, v := range []string{c.FirstDataAt, c.LastDataAt} {
		if v == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

type apiTicker struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Quotes map[string]struct {
		Price            float64  `json:"price"`
		MarketCap        float64  `json:"market_cap"`
		Volume24h        float64  `json:"volume_24h"`
		PercentChange24h *float64 `json:"percent_change_24h"`
	} `json:"quotes"`
}

// LookupBySymbol returns USD market data for the first coin whose symbol
// matches. It returns domain.ErrNotFound for unknown symbols.
func (c *Client) LookupBySymbol(ctx context.Context, symbol string) (domain.AssetInfo, error) {
	coins, err := c.listCoins(ctx)
	if err != nil {
		return domain.AssetInfo{}, fmt.Errorf("coinpaprika: lookup %s: %w", symbol, err)
	}
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	var id string
	for _, coin := range coins {
		if strings.ToUpper(coin.Symbol) == sym {
			id = coin.ID
			break
		}
	}
	if id == "" {
		return domain.AssetInfo{}, fmt.Errorf("coinpaprika: lookup %s: %w", symbol, domain.ErrNotFound)
	}

	body, err := c.doGet(ctx, "/tickers/"+url.PathEscape(id))
	if err != nil {
		return domain.AssetInfo{}, fmt.Errorf("coinpaprika: ticker %s: %w", id, err)
	}
	var t apiTicker
	if err := json.Unmarshal(body, &t); err != nil {
		return domain.AssetInfo{}, fmt.Errorf("coinpaprika: decode ticker %s: %w", id, err)
	}

	info := domain.AssetInfo{Symbol: t.Symbol, Name: t.Name}
	if usd, ok := t.Quotes["USD"]; ok {
		info.PriceUSD = usd.Price
		info.MarketCapUSD = usd.MarketCap
		info.Volume24hUSD = usd.Volume24h
		info.PercentChange24h = usd.PercentChange24h
	}
	return info, nil
}

// ListRecentlyAdded returns up to limit coins flagged as new, most recently
// seen first.
func (c *Client) ListRecentlyAdded(ctx context.Context, limit int) ([]domain.ListedAsset, error) {
	coins, err := c.listCoins(ctx)
	if err != nil {
		return nil, fmt.Errorf("coinpaprika: list new: %w", err)
	}
	fresh := make([]apiCoin, 0)
	for _, coin := range coins {
		if coin.IsNew {
			fresh = append(fresh, coin)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].seenAt().After(fresh[j].seenAt()) })
	if limit > 0 && len(fresh) > limit {
		fresh = fresh[:limit]
	}

	out := make([]domain.ListedAsset, 0, len(fresh))
	for _, coin := range fresh {
		out = append(out, domain.ListedAsset{
			ID:          coin.ID,
			Symbol:      coin.Symbol,
			Name:        coin.Name,
			FirstSeenAt: coin.seenAt(),
		})
	}
	return out, nil
}

func (c *Client) listCoins(ctx context.Context) ([]apiCoin, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.coins != nil && c.coinsTTL > 0 && c.now().Sub(c.coinsAt) < c.coinsTTL {
		return c.coins, nil
	}

	body, err := c.doGet(ctx, "/coins")
	if err != nil {
		return nil, err
	}
	var coins []apiCoin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("decode coins: %w", err)
	}
	c.coins, c.coinsAt = coins, c.now()
	return coins, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > 200 {
			body = body[:200]
		}
		return nil, fmt.Errorf("unexpected status %d: %s: %w", resp.StatusCode, body, domain.ErrUnavailable)
	}
	return body, nil
}

var _ domain.Catalog = (*Client)(nil)
