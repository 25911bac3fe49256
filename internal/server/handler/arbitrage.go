package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/arbitrage"
	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// QuoteFetcher gathers the quote set for one pair.
type QuoteFetcher interface {
	FetchAll(ctx context.Context, pair domain.Pair) domain.QuoteSet
}

// Ranker orders a watchlist by spread.
type Ranker interface {
	Top(ctx context.Context, pairs []domain.Pair, k int) []domain.RankedOpportunity
}

// ArbConfig configures the spread endpoints.
type ArbConfig struct {
	DefaultPair domain.Pair
	Watchlist   []domain.Pair
	TopK        int
}

// ArbHandler serves the read-only spread endpoints.
type ArbHandler struct {
	cfg    ArbConfig
	quotes QuoteFetcher
	ranker Ranker
	logger *slog.Logger
}

// NewArbHandler creates an ArbHandler.
func NewArbHandler(cfg ArbConfig, quotes QuoteFetcher, ranker Ranker, logger *slog.Logger) *ArbHandler {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &ArbHandler{cfg: cfg, quotes: quotes, ranker: ranker, logger: logHandler(logger, "arbitrage")}
}

type quoteJSON struct {
	Exchange string  `json:"exchange"`
	Label    string  `json:"label"`
	Bid      float64 `json:"bid"`
	Ask      float64 `json:"ask"`
}

type opportunityJSON struct {
	Pair         string  `json:"pair"`
	Pct          float64 `json:"pct"`
	BuyExchange  string  `json:"buy_exchange,omitempty"`
	SellExchange string  `json:"sell_exchange,omitempty"`
	BuyPrice     float64 `json:"buy_price"`
	SellPrice    float64 `json:"sell_price"`
	Profitable   bool    `json:"profitable"`
}

type spreadResponse struct {
	Opportunity opportunityJSON `json:"opportunity"`
	Quotes      []quoteJSON     `json:"quotes"`
	FetchedAt   time.Time       `json:"fetched_at"`
}

type topResponse struct {
	Opportunities []opportunityJSON `json:"opportunities"`
}

func toOpportunityJSON(o domain.Opportunity) opportunityJSON {
	return opportunityJSON{
		Pair:         o.Pair.String(),
		Pct:          o.Pct,
		BuyExchange:  o.BuyExchange,
		SellExchange: o.SellExchange,
		BuyPrice:     o.BuyPrice,
		SellPrice:    o.SellPrice,
		Profitable:   o.Profitable(),
	}
}

// GetSpread fetches live quotes for one pair and returns its best crossing.
// GET /api/spread?pair=btc
func (h *ArbHandler) GetSpread(w http.ResponseWriter, r *http.Request) {
	pair := h.cfg.DefaultPair
	if v := r.URL.Query().Get("pair"); v != "" {
		p, err := domain.ParsePair(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid pair")
			return
		}
		pair = p
	}

	qs := h.quotes.FetchAll(r.Context(), pair)
	if qs.Empty() {
		h.logger.WarnContext(r.Context(), "no quotes", slog.String("pair", pair.String()))
		writeError(w, http.StatusServiceUnavailable, "no exchange returned a quote")
		return
	}

	resp := spreadResponse{
		Opportunity: toOpportunityJSON(arbitrage.BestSpread(qs)),
		Quotes:      make([]quoteJSON, 0, len(qs.Quotes)),
		FetchedAt:   qs.FetchedAt,
	}
	for _, q := range qs.Quotes {
		resp.Quotes = append(resp.Quotes, quoteJSON{Exchange: q.Exchange, Label: q.Label, Bid: q.Bid, Ask: q.Ask})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTop ranks the watchlist and returns the best profitable crossings.
// GET /api/top?k=5
func (h *ArbHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	k := queryInt(r, "k", h.cfg.TopK, len(h.cfg.Watchlist))
	ranked := h.ranker.Top(r.Context(), h.cfg.Watchlist, k)

	resp := topResponse{Opportunities: make([]opportunityJSON, 0, len(ranked))}
	for _, opp := range ranked {
		resp.Opportunities = append(resp.Opportunities, toOpportunityJSON(opp.Opportunity))
	}
	writeJSON(w, http.StatusOK, resp)
}
