package arbitrage

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// QuoteFetcher returns every available quote for a pair.
type QuoteFetcher interface {
	FetchAll(ctx context.Context, pair domain.Pair) domain.QuoteSet
}

// Ranker evaluates a watchlist and returns its most profitable crossings.
type Ranker struct {
	quotes      QuoteFetcher
	concurrency int
	logger      *slog.Logger
}

// NewRanker creates a Ranker. concurrency bounds how many pairs are fetched at
// once; values below 1 fetch pairs one at a time.
func NewRanker(quotes QuoteFetcher, concurrency int, logger *slog.Logger) *Ranker {
	return &Ranker{
		quotes:      quotes,
		concurrency: max(concurrency, 1),
		logger:      logger.With(slog.String("component", "ranker")),
	}
}

// Top returns at most k opportunities with strictly positive pct, sorted by pct
// descending. Equal pct keeps watchlist order.
func (r *Ranker) Top(ctx context.Context, pairs []domain.Pair, k int) []domain.RankedOpportunity {
	if k <= 0 || len(pairs) == 0 {
		return nil
	}

	results := make([]domain.RankedOpportunity, len(pairs))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, pair := range pairs {
		g.Go(func() error {
			qs := r.quotes.FetchAll(ctx, pair)
			results[i] = domain.RankedOpportunity{Opportunity: BestSpread(qs), Quotes: qs}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.RankedOpportunity, 0, len(results))
	for _, res := range results {
		if res.Profitable() {
			out = append(out, res)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pct > out[j].Pct })
	if len(out) > k {
		out = out[:k]
	}

	r.logger.DebugContext(ctx, "watchlist ranked",
		slog.Int("pairs", len(pairs)),
		slog.Int("profitable", len(out)),
	)
	return out
}
