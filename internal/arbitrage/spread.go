// Package arbitrage finds cross-exchange crossings in quote sets and ranks them
// across a watchlist.
package arbitrage

import "github.com/alanyoungcy/spreadbot/internal/domain"

// SpreadPct is the gross percentage gained by buying at ask and selling at bid.
func SpreadPct(bid, ask float64) float64 {
	return (bid - ask) / ask * 100
}

// BestSpread returns the maximum crossing over every ordered (sell, buy) pair
// in qs, an exchange paired with itself included. The first pair wins ties.
// An empty set yields the zero Opportunity with only Pair set.
func BestSpread(qs domain.QuoteSet) domain.Opportunity {
	best := domain.Opportunity{Pair: qs.Pair}
	found := false
	for _, sell := range qs.Quotes {
		for _, buy := range qs.Quotes {
			if buy.Ask <= 0 {
				continue
			}
			pct := SpreadPct(sell.Bid, buy.Ask)
			if found && pct <= best.Pct {
				continue
			}
			found = true
			best = domain.Opportunity{
				Pair:         qs.Pair,
				Pct:          pct,
				BuyExchange:  buy.Exchange,
				SellExchange: sell.Exchange,
				BuyPrice:     buy.Ask,
				SellPrice:    sell.Bid,
			}
		}
	}
	return best
}
