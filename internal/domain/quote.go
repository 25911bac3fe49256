package domain

import "time"

// Quote is one exchange's best bid and ask for a pair at one point in time.
// Bid and ask are both positive; a crossed book is legal data.
type Quote struct {
	Exchange string // registry key, e.g. "binance"
	Label    string // display label, e.g. "🟡 binance"
	Bid      float64
	Ask      float64
}

// Valid reports whether the quote carries usable prices.
func (q Quote) Valid() bool {
	return q.Bid > 0 && q.Ask > 0
}

// QuoteSet is every successful quote for one pair from one fetch cycle, in
// adapter registration order. It is never mutated after construction.
type QuoteSet struct {
	Pair      Pair
	Quotes    []Quote
	FetchedAt time.Time
}

// Empty reports whether no exchange answered for the pair.
func (qs QuoteSet) Empty() bool {
	return len(qs.Quotes) == 0
}

// Labels returns exchange key to display label for the quotes in the set.
func (qs QuoteSet) Labels() map[string]string {
	out := make(map[string]string, len(qs.Quotes))
	for _, q := range qs.Quotes {
		out[q.Exchange] = q.Label
	}
	return out
}
