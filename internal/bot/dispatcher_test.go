package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/domain"
	"github.com/alanyoungcy/spreadbot/internal/session"
)

type sent struct {
	to  domain.RecipientID
	msg domain.Message
}

type recordNotifier struct {
	mu   sync.Mutex
	msgs []sent
}

func (r *recordNotifier) Send(_ context.Context, to domain.RecipientID, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{to: to, msg: msg})
	return nil
}

func (r *recordNotifier) last(t *testing.T) domain.Message {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.msgs)
	return r.msgs[len(r.msgs)-1].msg
}

func (r *recordNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type stubQuotes struct {
	sets  map[domain.Pair]domain.QuoteSet
	calls int
	panic bool
}

func (s *stubQuotes) FetchAll(_ context.Context, pair domain.Pair) domain.QuoteSet {
	s.calls++
	if s.panic {
		panic("exchange exploded")
	}
	if qs, ok := s.sets[pair]; ok {
		return qs
	}
	return domain.QuoteSet{Pair: pair}
}

type stubRanker struct {
	top   []domain.RankedOpportunity
	pairs []domain.Pair
	k     int
}

func (s *stubRanker) Top(_ context.Context, pairs []domain.Pair, k int) []domain.RankedOpportunity {
	s.pairs, s.k = pairs, k
	return s.top
}

type stubCatalog struct {
	assets []domain.ListedAsset
	info   map[string]domain.AssetInfo
	err    error
}

func (s *stubCatalog) LookupBySymbol(_ context.Context, symbol string) (domain.AssetInfo, error) {
	if s.err != nil {
		return domain.AssetInfo{}, s.err
	}
	info, ok := s.info[symbol]
	if !ok {
		return domain.AssetInfo{}, domain.ErrNotFound
	}
	return info, nil
}

func (s *stubCatalog) ListRecentlyAdded(_ context.Context, limit int) ([]domain.ListedAsset, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.assets) > limit {
		return s.assets[:limit], nil
	}
	return s.assets, nil
}

type denyLimiter struct{ allow bool }

func (d denyLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return d.allow, nil
}

type harness struct {
	d        *Dispatcher
	sessions *session.Registry
	out      *recordNotifier
	quotes   *stubQuotes
	ranker   *stubRanker
	catalog  *stubCatalog
}

const chat domain.RecipientID = 42

func newHarness(t *testing.T, opts ...func(*Config, *Deps)) *harness {
	t.Helper()
	h := &harness{
		sessions: session.NewRegistry(domain.SessionDefaults{Pair: domain.MustPair("BTC"), NotifyThreshold: 0.1, Locale: "en"}),
		out:      &recordNotifier{},
		quotes:   &stubQuotes{sets: map[domain.Pair]domain.QuoteSet{domain.MustPair("BTC"): sampleSet()}},
		ranker:   &stubRanker{},
		catalog:  &stubCatalog{},
	}
	cfg := Config{Watchlist: domain.MustParsePairs("BTC", "ETH")}
	deps := Deps{
		Sessions: h.sessions,
		Quotes:   h.quotes,
		Ranker:   h.ranker,
		Catalog:  h.catalog,
		Notifier: h.out,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(&cfg, &deps)
	}
	h.d = NewDispatcher(cfg, deps)
	return h
}

func (h *harness) say(text string) {
	h.d.Handle(context.Background(), domain.InboundEvent{Recipient: chat, Text: text})
}

func TestStartShowsHome(t *testing.T) {
	h := newHarness(t)
	h.say("/start")

	msg := h.out.last(t)
	assert.Equal(t, "Pair: <b>BTC/USDT</b>\nTap <b>Scan Now</b> to fetch prices.", msg.Text)
	assert.Equal(t, MainKeyboard(Lookup("en"), false), msg.Keyboard)

	h.say("Back")
	assert.Equal(t, msg, h.out.last(t))
}

func TestChangePairFlow(t *testing.T) {
	h := newHarness(t)

	h.say("Change Pair")
	assert.Equal(t, Lookup("en").AskPair, h.out.last(t).Text)
	assert.Equal(t, domain.PendingPair, h.sessions.Get(chat).Pending)

	h.say("12345")
	assert.Equal(t, Lookup("en").BadPair, h.out.last(t).Text)
	assert.Equal(t, domain.PendingPair, h.sessions.Get(chat).Pending)

	h.say("Scan Now")
	assert.Equal(t, Lookup("en").BadPair, h.out.last(t).Text)

	h.say("eth")
	assert.Equal(t, "Pair set to <b>ETH/USDT</b>.", h.out.last(t).Text)
	s := h.sessions.Get(chat)
	assert.Equal(t, "ETH/USDT", s.Pair.String())
	assert.Equal(t, domain.PendingNone, s.Pending)
}

func TestPendingPairCancelledByBack(t *testing.T) {
	h := newHarness(t)
	h.say("Change Pair")
	h.say("Back")

	assert.Equal(t, domain.PendingNone, h.sessions.Get(chat).Pending)
	assert.Contains(t, h.out.last(t).Text, "Pair: <b>BTC/USDT</b>")
}

func TestFreeTypedPair(t *testing.T) {
	h := newHarness(t)
	h.say("solusdt")
	assert.Equal(t, "SOL/USDT", h.sessions.Get(chat).Pair.String())

	h.say("Назад")
	assert.Equal(t, Lookup("en").AskPair, h.out.last(t).Text)
	assert.Equal(t, "SOL/USDT", h.sessions.Get(chat).Pair.String())

	h.say("what is this")
	assert.Equal(t, Lookup("en").AskPair, h.out.last(t).Text)
}

func TestLanguageFlow(t *testing.T) {
	h := newHarness(t)
	h.say("Language")
	msg := h.out.last(t)
	assert.Equal(t, "Choose language:", msg.Text)
	assert.Equal(t, LanguageKeyboard(), msg.Keyboard)

	h.say("Русский")
	s := h.sessions.Get(chat)
	assert.Equal(t, "ru", s.Locale)
	assert.Equal(t, domain.PendingNone, s.Pending)
	assert.Contains(t, h.out.last(t).Text, "Пара: <b>BTC/USDT</b>")

	h.say("Язык")
	h.say("klingon")
	assert.Equal(t, "ru", h.sessions.Get(chat).Locale)
	assert.Equal(t, domain.PendingNone, h.sessions.Get(chat).Pending)
}

func TestAutoToggle(t *testing.T) {
	h := newHarness(t)
	h.say("Auto: OFF")
	msg := h.out.last(t)
	assert.Equal(t, "Auto scan: <b>ON</b>.", msg.Text)
	assert.Equal(t, "Auto: ON", msg.Keyboard[2][0])
	assert.True(t, h.sessions.Get(chat).WatcherEnabled)

	h.say("Auto: ON")
	assert.Equal(t, "Auto scan: <b>OFF</b>.", h.out.last(t).Text)
	assert.False(t, h.sessions.Get(chat).WatcherEnabled)
}

func TestScan(t *testing.T) {
	h := newHarness(t)
	h.say("Scan Now")
	assert.Contains(t, h.out.last(t).Text, "<b>Arbitrage — BTC/USDT</b>")

	h.say("xrp")
	h.say("Scan Now")
	assert.Equal(t, "No quotes for XRP/USDT.", h.out.last(t).Text)
	assert.Equal(t, 2, h.quotes.calls)
}

func TestTop(t *testing.T) {
	h := newHarness(t)
	h.say("Top Opportunities")
	assert.Equal(t, "No positive spreads right now.", h.out.last(t).Text)
	assert.Equal(t, 5, h.ranker.k)
	assert.Equal(t, domain.MustParsePairs("BTC", "ETH"), h.ranker.pairs)

	qs := sampleSet()
	h.ranker.top = []domain.RankedOpportunity{{Opportunity: domain.Opportunity{Pair: qs.Pair, Pct: 2, BuyExchange: "binance", SellExchange: "okx", BuyPrice: 101, SellPrice: 103}, Quotes: qs}}
	h.say("Top Opportunities")
	assert.Contains(t, h.out.last(t).Text, "<b>1) BTC/USDT</b> — <b>2.00%</b>")
}

func TestInfoAndNewTokens(t *testing.T) {
	h := newHarness(t)
	h.catalog.info = map[string]domain.AssetInfo{"TON": {Symbol: "TON", Name: "Toncoin", PriceUSD: 5.5}}
	h.catalog.assets = []domain.ListedAsset{{Symbol: "NEW", Name: "Newcoin"}}

	h.say("info TON")
	assert.Contains(t, h.out.last(t).Text, "<b>TON</b> — Toncoin")

	h.say("INFO nope")
	assert.Equal(t, "No info for that symbol.", h.out.last(t).Text)

	h.say("New Tokens")
	assert.Contains(t, h.out.last(t).Text, "• NEW — Newcoin")

	h.catalog.err = errors.New("catalog down")
	h.say("info TON")
	assert.Equal(t, "No info for that symbol.", h.out.last(t).Text)
	h.say("New Tokens")
	assert.Equal(t, "No new coins found right now.", h.out.last(t).Text)
}

func TestNoCatalogDegrades(t *testing.T) {
	h := newHarness(t, func(_ *Config, d *Deps) { d.Catalog = nil })
	h.say("info btc")
	assert.Equal(t, "No info for that symbol.", h.out.last(t).Text)
	h.say("New Tokens")
	assert.Equal(t, "No new coins found right now.", h.out.last(t).Text)
}

func TestThresholdCommand(t *testing.T) {
	h := newHarness(t)

	h.say("/threshold")
	assert.Contains(t, h.out.last(t).Text, "<b>0.10%</b>")

	h.say("/threshold 0,75%")
	assert.Equal(t, "Auto alert threshold set to <b>0.75%</b>.", h.out.last(t).Text)
	assert.Equal(t, 0.75, h.sessions.Get(chat).NotifyThreshold)

	for _, bad := range []string{"/threshold abc", "/threshold -1", "/threshold NaN", "/threshold 1e9"} {
		h.say(bad)
		assert.Equal(t, Lookup("en").ThresholdUsage, h.out.last(t).Text, bad)
	}
	assert.Equal(t, 0.75, h.sessions.Get(chat).NotifyThreshold)
}

func TestCommandLimit(t *testing.T) {
	h := newHarness(t, func(c *Config, d *Deps) {
		c.CommandLimit = 1
		c.CommandWindow = time.Minute
		d.Limiter = denyLimiter{allow: false}
	})
	h.say("Scan Now")
	assert.Equal(t, Lookup("en").SlowDown, h.out.last(t).Text)
	assert.Equal(t, 0, h.quotes.calls)

	h.say("/start")
	assert.Contains(t, h.out.last(t).Text, "Pair:")
}

func TestRunSurvivesPanicsAndStopsOnClose(t *testing.T) {
	h := newHarness(t)
	h.quotes.panic = true

	events := make(chan domain.InboundEvent, 3)
	events <- domain.InboundEvent{Recipient: chat, Text: "Scan Now"}
	events <- domain.InboundEvent{Recipient: chat, Text: "/start"}
	close(events)

	require.NoError(t, h.d.Run(context.Background(), events))
	assert.Equal(t, 1, h.out.count())
	assert.Contains(t, h.out.last(t).Text, "Pair:")
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.d.Run(ctx, make(chan domain.InboundEvent))
	assert.ErrorIs(t, err, context.Canceled)
}
