package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/cache/memory"
	"github.com/alanyoungcy/spreadbot/internal/domain"
	"github.com/alanyoungcy/spreadbot/internal/session"
)

type scriptedRanker struct {
	mu    sync.Mutex
	next  []domain.RankedOpportunity
	calls int
	k     int
}

func (r *scriptedRanker) set(opps ...domain.RankedOpportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = opps
}

func (r *scriptedRanker) Top(_ context.Context, _ []domain.Pair, k int) []domain.RankedOpportunity {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.k = k
	return r.next
}

type inbox struct {
	mu   sync.Mutex
	msgs map[domain.RecipientID][]domain.Message
	down map[domain.RecipientID]bool
}

func (b *inbox) Send(_ context.Context, to domain.RecipientID, msg domain.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.down[to] {
		return errors.New("chat blocked")
	}
	if b.msgs == nil {
		b.msgs = make(map[domain.RecipientID][]domain.Message)
	}
	b.msgs[to] = append(b.msgs[to], msg)
	return nil
}

func (b *inbox) count(id domain.RecipientID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs[id])
}

type textRenderer struct{}

func (textRenderer) WatcherAlert(_ domain.Session, opp domain.RankedOpportunity) []domain.Message {
	return []domain.Message{{Text: "alert " + opp.Fingerprint()}, {Text: "table " + opp.Pair.String()}}
}

type memAlerts struct {
	mu     sync.Mutex
	alerts []domain.Alert
	err    error
}

func (m *memAlerts) Insert(_ context.Context, a domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *memAlerts) ListRecent(context.Context, int) ([]domain.Alert, error) { return nil, nil }

type opsRecorder struct{ titles []string }

func (o *opsRecorder) Notify(_ context.Context, event, title, _ string) error {
	o.titles = append(o.titles, event+":"+title)
	return nil
}

func opp(pair, buy, sell string, pct float64) domain.RankedOpportunity {
	p := domain.MustPair(pair)
	return domain.RankedOpportunity{
		Opportunity: domain.Opportunity{Pair: p, Pct: pct, BuyExchange: buy, SellExchange: sell, BuyPrice: 100, SellPrice: 100 * (1 + pct/100)},
		Quotes:      domain.QuoteSet{Pair: p},
	}
}

type fixture struct {
	w        *Watcher
	sessions *session.Registry
	ranker   *scriptedRanker
	out      *inbox
	alerts   *memAlerts
	ops      *opsRecorder
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions: session.NewRegistry(domain.SessionDefaults{Pair: domain.MustPair("BTC"), NotifyThreshold: 0.1, Locale: "en"}),
		ranker:   &scriptedRanker{},
		out:      &inbox{},
		alerts:   &memAlerts{},
		ops:      &opsRecorder{},
		now:      time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.w = New(Config{TickPeriod: 5 * time.Second, ScanPeriod: 30 * time.Second, Watchlist: domain.MustParsePairs("BTC", "ETH")}, Deps{
		Sessions: f.sessions,
		Ranker:   f.ranker,
		Notifier: f.out,
		Renderer: textRenderer{},
		Alerts:   f.alerts,
		Ops:      f.ops,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	f.w.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) enable(id domain.RecipientID) {
	f.sessions.Update(id, func(s *domain.Session) { s.WatcherEnabled = true })
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func TestStickyFingerprintDedup(t *testing.T) {
	f := newFixture(t)
	f.enable(1)
	ctx := context.Background()

	f.ranker.set(opp("BTC", "binance", "okx", 1.0))
	assert.Equal(t, 1, f.w.Tick(ctx))
	assert.Equal(t, 2, f.out.count(1))
	assert.Equal(t, 1, f.ranker.k)

	f.advance(30 * time.Second)
	f.ranker.set(opp("BTC", "binance", "okx", 1.5))
	assert.Equal(t, 0, f.w.Tick(ctx))
	assert.Equal(t, 2, f.out.count(1))

	f.advance(30 * time.Second)
	f.ranker.set(opp("BTC", "binance", "bybit", 0.8))
	assert.Equal(t, 1, f.w.Tick(ctx))
	assert.Equal(t, 4, f.out.count(1))

	s := f.sessions.Get(1)
	assert.Equal(t, "BTC/USDT|binance|bybit", s.LastNotified)

	require.Len(t, f.alerts.alerts, 2)
	assert.Equal(t, "BTC/USDT|binance|okx", f.alerts.alerts[0].Fingerprint)
	assert.NotEmpty(t, f.alerts.alerts[0].ID)
	assert.NotEqual(t, f.alerts.alerts[0].ID, f.alerts.alerts[1].ID)
	assert.Len(t, f.ops.titles, 2)
}

func TestDisappearedThenSameFingerprintStaysSuppressed(t *testing.T) {
	f := newFixture(t)
	f.enable(1)
	ctx := context.Background()

	f.ranker.set(opp("ETH", "gate", "mexc", 2))
	f.w.Tick(ctx)

	f.advance(time.Minute)
	f.ranker.set()
	assert.Equal(t, 0, f.w.Tick(ctx))

	f.advance(time.Minute)
	f.ranker.set(opp("ETH", "gate", "mexc", 3))
	assert.Equal(t, 0, f.w.Tick(ctx))
	assert.Equal(t, 2, f.out.count(1))
}

func TestDisabledWatcherNeverNotified(t *testing.T) {
	f := newFixture(t)
	f.sessions.Get(1)
	f.ranker.set(opp("BTC", "binance", "okx", 5))

	for range 10 {
		f.advance(time.Hour)
		assert.Equal(t, 0, f.w.Tick(context.Background()))
	}
	assert.Equal(t, 0, f.out.count(1))
	assert.Equal(t, 0, f.ranker.calls)
	assert.True(t, f.sessions.Get(1).LastScanAt.IsZero())
}

func TestScanPeriodGate(t *testing.T) {
	f := newFixture(t)
	f.enable(1)
	ctx := context.Background()
	f.ranker.set(opp("BTC", "binance", "okx", 1))

	f.w.Tick(ctx)
	assert.Equal(t, f.now, f.sessions.Get(1).LastScanAt)

	f.advance(5 * time.Second)
	f.ranker.set(opp("BTC", "kucoin", "okx", 1))
	assert.Equal(t, 0, f.w.Tick(ctx))
	assert.Equal(t, 1, f.ranker.calls)

	f.advance(25 * time.Second)
	assert.Equal(t, 1, f.w.Tick(ctx))
	assert.Equal(t, 2, f.ranker.calls)
}

func TestThresholdFilter(t *testing.T) {
	f := newFixture(t)
	f.enable(1)
	f.sessions.Update(1, func(s *domain.Session) { s.NotifyThreshold = 0.5 })
	ctx := context.Background()

	f.ranker.set(opp("BTC", "binance", "okx", 0.49))
	assert.Equal(t, 0, f.w.Tick(ctx))
	assert.Empty(t, f.sessions.Get(1).LastNotified)

	f.advance(30 * time.Second)
	f.ranker.set(opp("BTC", "binance", "okx", 0.5))
	assert.Equal(t, 1, f.w.Tick(ctx))
}

func TestIndependentSubscribers(t *testing.T) {
	f := newFixture(t)
	f.enable(1)
	ctx := context.Background()
	f.ranker.set(opp("BTC", "binance", "okx", 1))
	f.w.Tick(ctx)

	f.advance(10 * time.Second)
	f.enable(2)
	assert.Equal(t, 1, f.w.Tick(ctx))
	assert.Equal(t, 2, f.out.count(2))
	assert.Equal(t, 2, f.out.count(1))
}

func TestAlertStoreFailureDoesNotBlockDelivery(t *testing.T) {
	f := newFixture(t)
	f.enable(1)
	f.alerts.err = errors.New("db down")
	f.ranker.set(opp("BTC", "binance", "okx", 1))
	assert.Equal(t, 1, f.w.Tick(context.Background()))
	assert.Equal(t, 2, f.out.count(1))
}

func TestPublishesBestOpportunity(t *testing.T) {
	f := newFixture(t)
	bus := memory.NewSignalBus()
	f.w.deps.Bus = bus
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := bus.Subscribe(ctx, domain.ChannelOpportunities)
	require.NoError(t, err)

	f.enable(1)
	f.ranker.set(opp("SOL", "htx", "okx", 2.5))
	f.w.Tick(ctx)

	var ev domain.OpportunityEvent
	require.NoError(t, json.Unmarshal(<-ch, &ev))
	assert.Equal(t, "SOL/USDT", ev.Pair)
	assert.Equal(t, "SOL/USDT|htx|okx", ev.Fingerprint)
	assert.Equal(t, 2.5, ev.Pct)
	assert.True(t, f.now.Equal(ev.DetectedAt))
}

func TestRunRecoversFromPanickingTick(t *testing.T) {
	f := newFixture(t)
	f.enable(1)
	f.w.cfg.TickPeriod = 5 * time.Millisecond
	f.w.deps.Renderer = panicRenderer{}
	f.ranker.set(opp("BTC", "binance", "okx", 1))
	calls := 0
	f.w.now = func() time.Time {
		calls++
		return f.now.Add(time.Duration(calls) * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := f.w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	f.ranker.mu.Lock()
	defer f.ranker.mu.Unlock()
	assert.Greater(t, f.ranker.calls, 1)
}

type panicRenderer struct{}

func (panicRenderer) WatcherAlert(domain.Session, domain.RankedOpportunity) []domain.Message {
	panic("template broke")
}

func TestBroadcastWithoutSubscribers(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.w.Broadcast(context.Background()), "no bus configured")

	bus := memory.NewSignalBus()
	f.w.deps.Bus = bus
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := bus.Subscribe(ctx, domain.ChannelOpportunities)
	require.NoError(t, err)

	assert.False(t, f.w.Broadcast(ctx), "nothing profitable")

	f.ranker.set(opp("TON", "gate", "bybit", 0.7))
	require.True(t, f.w.Broadcast(ctx))
	var ev domain.OpportunityEvent
	require.NoError(t, json.Unmarshal(<-ch, &ev))
	assert.Equal(t, "TON/USDT|gate|bybit", ev.Fingerprint)
	assert.Equal(t, 1, f.ranker.k)
	assert.Zero(t, f.out.count(1), "broadcast never messages subscribers")
}

func TestUndeliveredAlertIsNotRecorded(t *testing.T) {
	f := newFixture(t)
	f.enable(1)
	f.enable(2)
	f.out.down = map[domain.RecipientID]bool{2: true}
	ctx := context.Background()
	f.ranker.set(opp("BTC", "binance", "okx", 1))

	assert.Equal(t, 1, f.w.Tick(ctx))
	assert.Equal(t, 2, f.out.count(1))
	assert.Zero(t, f.out.count(2))
	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, domain.RecipientID(1), f.alerts.alerts[0].Recipient)
	require.Len(t, f.ops.titles, 1)

	// The fingerprint stays claimed, so recovery does not resend it.
	assert.Equal(t, "BTC/USDT|binance|okx", f.sessions.Get(2).LastNotified)
	f.out.down = nil
	f.advance(30 * time.Second)
	assert.Equal(t, 0, f.w.Tick(ctx))
	assert.Zero(t, f.out.count(2))
}
