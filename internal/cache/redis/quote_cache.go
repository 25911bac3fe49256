package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// QuoteCache implements domain.QuoteCache with one JSON string per pair at
// "quotes:{BASE/QUOTE}", expiring after the TTL passed to Set.
type QuoteCache struct {
	c *Client
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{c: c}
}

type cachedQuote struct {
	Exchange string  `json:"exchange"`
	Label    string  `json:"label"`
	Bid      float64 `json:"bid"`
	Ask      float64 `json:"ask"`
}

type cachedQuoteSet struct {
	Pair      domain.Pair   `json:"pair"`
	Quotes    []cachedQuote `json:"quotes"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Get returns domain.ErrCacheMiss when nothing fresh is stored for pair.
func (qc *QuoteCache) Get(ctx context.Context, pair domain.Pair) (domain.QuoteSet, error) {
	raw, err := qc.c.rdb.Get(ctx, qc.c.key("quotes", pair.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.QuoteSet{}, domain.ErrCacheMiss
	}
	if err != nil {
		return domain.QuoteSet{}, fmt.Errorf("redis: get quotes %s: %w", pair, err)
	}

	var cs cachedQuoteSet
	if err := json.Unmarshal(raw, &cs); err != nil {
		return domain.QuoteSet{}, fmt.Errorf("redis: decode quotes %s: %w", pair, err)
	}
	qs := domain.QuoteSet{Pair: cs.Pair, FetchedAt: cs.FetchedAt, Quotes: make([]domain.Quote, 0, len(cs.Quotes))}
	for _, q := range cs.Quotes {
		qs.Quotes = append(qs.Quotes, domain.Quote{Exchange: q.Exchange, Label: q.Label, Bid: q.Bid, Ask: q.Ask})
	}
	return qs, nil
}

// Set stores qs for ttl.
func (qc *QuoteCache) Set(ctx context.Context, qs domain.QuoteSet, ttl time.Duration) error {
	cs := cachedQuoteSet{Pair: qs.Pair, FetchedAt: qs.FetchedAt, Quotes: make([]cachedQuote, 0, len(qs.Quotes))}
	for _, q := range qs.Quotes {
		cs.Quotes = append(cs.Quotes, cachedQuote{Exchange: q.Exchange, Label: q.Label, Bid: q.Bid, Ask: q.Ask})
	}
	raw, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("redis: encode quotes %s: %w", qs.Pair, err)
	}
	if err := qc.c.rdb.Set(ctx, qc.c.key("quotes", qs.Pair.String()), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set quotes %s: %w", qs.Pair, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
