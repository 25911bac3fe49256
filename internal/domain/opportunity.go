package domain

import "time"

// Opportunity is the best buy-low/sell-high crossing found in a QuoteSet. Pct
// may be zero or negative, meaning no profitable crossing exists.
type Opportunity struct {
	Pair         Pair
	Pct          float64
	BuyExchange  string
	SellExchange string
	BuyPrice     float64 // ask on BuyExchange
	SellPrice    float64 // bid on SellExchange
}

// Profitable reports whether the crossing yields a strictly positive spread.
func (o Opportunity) Profitable() bool {
	return o.Pct > 0
}

// IsZero reports whether o is the empty-input sentinel.
func (o Opportunity) IsZero() bool {
	return o.Pct == 0 && o.BuyExchange == "" && o.SellExchange == "" &&
		o.BuyPrice == 0 && o.SellPrice == 0
}

// Fingerprint identifies the crossing independent of its magnitude:
// "pair|buyExchange|sellExchange".
func (o Opportunity) Fingerprint() string {
	return o.Pair.String() + "|" + o.BuyExchange + "|" + o.SellExchange
}

// RankedOpportunity is one watchlist entry: the best crossing for a pair
// together with the quotes it was computed from.
type RankedOpportunity struct {
	Opportunity
	Quotes QuoteSet
}

// Alert is a watcher notification that was delivered to a subscriber.
type Alert struct {
	ID           string
	Recipient    RecipientID
	Fingerprint  string
	Pair         Pair
	Pct          float64
	BuyExchange  string
	SellExchange string
	BuyPrice     float64
	SellPrice    float64
	SentAt       time.Time
}

// ChannelOpportunities is the signal bus channel carrying OpportunityEvent
// payloads.
const ChannelOpportunities = "opportunities"

// OpportunityEvent is the JSON form of a detected best crossing.
type OpportunityEvent struct {
	Pair         string    `json:"pair"`
	Pct          float64   `json:"pct"`
	BuyExchange  string    `json:"buy_exchange"`
	SellExchange string    `json:"sell_exchange"`
	BuyPrice     float64   `json:"buy_price"`
	SellPrice    float64   `json:"sell_price"`
	Fingerprint  string    `json:"fingerprint"`
	Exchanges    int       `json:"exchanges"`
	DetectedAt   time.Time `json:"detected_at"`
}

// NewOpportunityEvent converts a ranked opportunity for publishing.
func NewOpportunityEvent(opp RankedOpportunity, at time.Time) OpportunityEvent {
	return OpportunityEvent{
		Pair:         opp.Pair.String(),
		Pct:          opp.Pct,
		BuyExchange:  opp.BuyExchange,
		SellExchange: opp.SellExchange,
		BuyPrice:     opp.BuyPrice,
		SellPrice:    opp.SellPrice,
		Fingerprint:  opp.Fingerprint(),
		Exchanges:    len(opp.Quotes.Quotes),
		DetectedAt:   at,
	}
}
