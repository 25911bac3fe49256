package arbitrage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

type stubFetcher map[domain.Pair][]domain.Quote

func (s stubFetcher) FetchAll(_ context.Context, pair domain.Pair) domain.QuoteSet {
	return domain.QuoteSet{Pair: pair, Quotes: s[pair]}
}

func newTestRanker(f QuoteFetcher) *Ranker {
	return NewRanker(f, 4, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRankerTopFiltersAndSorts(t *testing.T) {
	pairs := domain.MustParsePairs("BTC", "ETH", "SOL", "XRP", "TON")
	fetcher := stubFetcher{
		pairs[0]: {q("a", 100, 101), q("b", 102, 100.5)},  // ~1.49%
		pairs[1]: {q("a", 10, 10.1), q("b", 10, 10.2)},    // negative
		pairs[2]: {q("a", 50, 49), q("b", 48, 48.5)},      // ~3.09%
		pairs[3]: nil,                                     // no quotes
		pairs[4]: {q("a", 2.01, 2.00), q("b", 1.9, 1.95)}, // ~3.08%
	}

	top := newTestRanker(fetcher).Top(context.Background(), pairs, 5)

	require.Len(t, top, 3)
	assert.Equal(t, "SOL/USDT", top[0].Pair.String())
	assert.Equal(t, "TON/USDT", top[1].Pair.String())
	assert.Equal(t, "BTC/USDT", top[2].Pair.String())
	for i, opp := range top {
		assert.Greater(t, opp.Pct, 0.0)
		assert.Equal(t, opp.Pair, opp.Quotes.Pair)
		if i > 0 {
			assert.GreaterOrEqual(t, top[i-1].Pct, opp.Pct)
		}
	}
}

func TestRankerTopLimitsToK(t *testing.T) {
	pairs := domain.MustParsePairs("BTC", "ETH", "SOL")
	fetcher := stubFetcher{
		pairs[0]: {q("a", 101, 100)},
		pairs[1]: {q("a", 103, 100)},
		pairs[2]: {q("a", 102, 100)},
	}

	top := newTestRanker(fetcher).Top(context.Background(), pairs, 1)

	require.Len(t, top, 1)
	assert.Equal(t, "ETH/USDT", top[0].Pair.String())
	assert.InDelta(t, 3.0, top[0].Pct, 1e-9)
}

func TestRankerTopEmpty(t *testing.T) {
	r := newTestRanker(stubFetcher{})
	assert.Empty(t, r.Top(context.Background(), domain.MustParsePairs("BTC"), 5))
	assert.Nil(t, r.Top(context.Background(), nil, 5))
	assert.Nil(t, r.Top(context.Background(), domain.MustParsePairs("BTC"), 0))
}
