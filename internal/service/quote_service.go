// Package service holds the quote aggregation layer that sits between the
// exchange adapters and the arbitrage, watcher and bot layers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// QuoteSource is one exchange adapter. Quote returns false when the exchange
// did not produce a usable quote.
type QuoteSource interface {
	Name() string
	Quote(ctx context.Context, pair domain.Pair) (domain.Quote, bool)
}

// QuoteServiceConfig tunes the aggregator.
type QuoteServiceConfig struct {
	// Concurrency bounds in-flight adapter calls per FetchAll. Values below 1
	// query every adapter at once.
	Concurrency int
	// Cache, when set, serves quote sets younger than CacheTTL.
	Cache    domain.QuoteCache
	CacheTTL time.Duration
}

// QuoteService queries every registered adapter for a pair and assembles the
// quotes that came back.
type QuoteService struct {
	sources     []QuoteSource
	concurrency int
	cache       domain.QuoteCache
	ttl         time.Duration
	flight      singleflight.Group
	now         func() time.Time
	logger      *slog.Logger
}

// NewQuoteService creates a QuoteService over sources. Iteration order of
// sources is the order of quotes in every QuoteSet.
func NewQuoteService(sources []QuoteSource, cfg QuoteServiceConfig, logger *slog.Logger) *QuoteService {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = len(sources)
	}
	cache := cfg.Cache
	if cfg.CacheTTL <= 0 {
		cache = nil
	}
	return &QuoteService{
		sources:     sources,
		concurrency: concurrency,
		cache:       cache,
		ttl:         cfg.CacheTTL,
		now:         time.Now,
		logger:      logger.With(slog.String("component", "quote_service")),
	}
}

// Exchanges returns the adapter names in iteration order.
func (s *QuoteService) Exchanges() []string {
	names := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		names = append(names, src.Name())
	}
	return names
}

// FetchAll returns every positive quote for pair. Failed adapters are simply
// missing from the result; an empty set means no exchange answered.
func (s *QuoteService) FetchAll(ctx context.Context, pair domain.Pair) domain.QuoteSet {
	if s.cache == nil {
		return s.fetch(ctx, pair)
	}

	if qs, err := s.cache.Get(ctx, pair); err == nil {
		return qs
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "quote cache get failed",
			slog.String("pair", pair.String()),
			slog.String("error", err.Error()),
		)
	}

	// Concurrent callers for the same pair share one fan-out. The shared call
	// must outlive any single caller's cancellation.
	v, _, _ := s.flight.Do(pair.String(), func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		qs := s.fetch(fctx, pair)
		if !qs.Empty() {
			if err := s.cache.Set(fctx, qs, s.ttl); err != nil {
				s.logger.WarnContext(ctx, "quote cache set failed",
					slog.String("pair", pair.String()),
					slog.String("error", err.Error()),
				)
			}
		}
		return qs, nil
	})
	return v.(domain.QuoteSet)
}

func (s *QuoteService) fetch(ctx context.Context, pair domain.Pair) domain.QuoteSet {
	type slot struct {
		quote domain.Quote
		ok    bool
	}
	slots := make([]slot, len(s.sources))

	// Adapters enforce their own timeouts and never return errors, so the
	// group is only used for bounded fan-out and the final wait.
	var g errgroup.Group
	g.SetLimit(max(s.concurrency, 1))
	for i, src := range s.sources {
		g.Go(func() error {
			q, ok := src.Quote(ctx, pair)
			slots[i] = slot{quote: q, ok: ok && q.Valid()}
			return nil
		})
	}
	_ = g.Wait()

	quotes := make([]domain.Quote, 0, len(slots))
	for _, sl := range slots {
		if sl.ok {
			quotes = append(quotes, sl.quote)
		}
	}

	s.logger.DebugContext(ctx, "quotes fetched",
		slog.String("pair", pair.String()),
		slog.Int("answered", len(quotes)),
		slog.Int("exchanges", len(s.sources)),
	)
	return domain.QuoteSet{Pair: pair, Quotes: quotes, FetchedAt: s.now()}
}
