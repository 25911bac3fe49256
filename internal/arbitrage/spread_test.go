package arbitrage

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

func quoteSet(pair string, quotes ...domain.Quote) domain.QuoteSet {
	return domain.QuoteSet{Pair: domain.MustPair(pair), Quotes: quotes}
}

func q(exchange string, bid, ask float64) domain.Quote {
	return domain.Quote{Exchange: exchange, Label: exchange, Bid: bid, Ask: ask}
}

func TestBestSpreadBuysLowSellsHigh(t *testing.T) {
	opp := BestSpread(quoteSet("BTC", q("a", 100, 101), q("b", 105, 106)))

	assert.Equal(t, "a", opp.BuyExchange)
	assert.Equal(t, "b", opp.SellExchange)
	assert.Equal(t, 101.0, opp.BuyPrice)
	assert.Equal(t, 105.0, opp.SellPrice)
	assert.InDelta(t, 3.9604, opp.Pct, 0.0001)
	assert.True(t, opp.Profitable())
	assert.Equal(t, "BTC/USDT|a|b", opp.Fingerprint())
}

func TestBestSpreadEmptyIsSentinel(t *testing.T) {
	opp := BestSpread(quoteSet("ETH"))

	assert.True(t, opp.IsZero())
	assert.Equal(t, 0.0, opp.Pct)
	assert.Empty(t, opp.BuyExchange)
	assert.Empty(t, opp.SellExchange)
	assert.Equal(t, 0.0, opp.BuyPrice)
	assert.Equal(t, 0.0, opp.SellPrice)
	assert.False(t, opp.Profitable())
}

func TestBestSpreadSingleQuoteIsSelfPair(t *testing.T) {
	opp := BestSpread(quoteSet("SOL", q("a", 99, 100)))

	assert.Equal(t, "a", opp.BuyExchange)
	assert.Equal(t, "a", opp.SellExchange)
	assert.InDelta(t, -1.0, opp.Pct, 1e-9)
	assert.False(t, opp.Profitable())
	assert.False(t, opp.IsZero())
}

func TestBestSpreadNoCrossingIsNonPositive(t *testing.T) {
	opp := BestSpread(quoteSet("XRP", q("a", 1.00, 1.01), q("b", 1.00, 1.02)))
	assert.LessOrEqual(t, opp.Pct, 0.0)
	assert.False(t, opp.IsZero())
}

func TestBestSpreadTiesKeepFirst(t *testing.T) {
	// a and b are identical, so every crossing through b ties one through a.
	opp := BestSpread(quoteSet("TON", q("a", 10, 9), q("b", 10, 9)))
	assert.Equal(t, "a", opp.BuyExchange)
	assert.Equal(t, "a", opp.SellExchange)
}

func TestBestSpreadIsMaximum(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		n := 2 + rng.IntN(7)
		quotes := make([]domain.Quote, n)
		for i := range quotes {
			mid := 100 + rng.Float64()*10
			quotes[i] = q(string(rune('a'+i)), mid*(1-rng.Float64()*0.01), mid*(1+rng.Float64()*0.01))
		}
		opp := BestSpread(quoteSet("BTC", quotes...))
		for _, sell := range quotes {
			for _, buy := range quotes {
				require.GreaterOrEqual(t, opp.Pct, SpreadPct(sell.Bid, buy.Ask))
			}
		}
	}
}
