// Package bot turns inbound chat text into session changes, on-demand scans
// and replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// SessionStore is the subscriber state the dispatcher reads and mutates.
type SessionStore interface {
	Get(id domain.RecipientID) domain.Session
	Update(id domain.RecipientID, fn func(s *domain.Session)) domain.Session
}

// QuoteFetcher returns every available quote for a pair.
type QuoteFetcher interface {
	FetchAll(ctx context.Context, pair domain.Pair) domain.QuoteSet
}

// Ranker returns the top profitable crossings across pairs.
type Ranker interface {
	Top(ctx context.Context, pairs []domain.Pair, k int) []domain.RankedOpportunity
}

// Config tunes the dispatcher.
type Config struct {
	Watchlist      []domain.Pair
	TopK           int
	NewTokensLimit int
	// CommandLimit and CommandWindow bound network-heavy commands per
	// subscriber. A zero limit disables limiting.
	CommandLimit  int
	CommandWindow time.Duration
}

// Dispatcher handles inbound events one at a time.
type Dispatcher struct {
	cfg      Config
	sessions SessionStore
	quotes   QuoteFetcher
	ranker   Ranker
	catalog  domain.Catalog
	notifier domain.Notifier
	limiter  domain.RateLimiter
	logger   *slog.Logger
}

// Deps are the dispatcher's collaborators. Catalog and Limiter are optional.
type Deps struct {
	Sessions SessionStore
	Quotes   QuoteFetcher
	Ranker   Ranker
	Catalog  domain.Catalog
	Notifier domain.Notifier
	Limiter  domain.RateLimiter
	Logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg Config, deps Deps) *Dispatcher {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.NewTokensLimit <= 0 {
		cfg.NewTokensLimit = 10
	}
	return &Dispatcher{
		cfg:      cfg,
		sessions: deps.Sessions,
		quotes:   deps.Quotes,
		ranker:   deps.Ranker,
		catalog:  deps.Catalog,
		notifier: deps.Notifier,
		limiter:  deps.Limiter,
		logger:   deps.Logger.With(slog.String("component", "dispatcher")),
	}
}

// Run consumes events until the channel closes or ctx is cancelled. A failing
// event is logged and does not stop the loop.
func (d *Dispatcher) Run(ctx context.Context, events <-chan domain.InboundEvent) error {
	d.logger.Info("dispatcher started")
	defer d.logger.Info("dispatcher stopped")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := d.safeHandle(ctx, ev); err != nil {
				d.logger.ErrorContext(ctx, "handle event failed",
					slog.Int64("recipient", int64(ev.Recipient)),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (d *Dispatcher) safeHandle(ctx context.Context, ev domain.InboundEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bot: handle panic: %v", r)
		}
	}()
	d.Handle(ctx, ev)
	return nil
}

// Handle processes one inbound text. Session locks are never held across the
// network calls it makes.
func (d *Dispatcher) Handle(ctx context.Context, ev domain.InboundEvent) {
	id := ev.Recipient
	s := d.sessions.Get(id)
	tx := Lookup(s.Locale)
	t := strings.TrimSpace(ev.Text)
	u := strings.ToUpper(t)
	isStart := u == "/START" || strings.HasPrefix(u, "/START ")

	switch s.Pending {
	case domain.PendingLanguage:
		d.setLanguage(ctx, id, t)
		return
	case domain.PendingPair:
		if isStart || t == tx.Back {
			d.sessions.Update(id, func(s *domain.Session) { s.Pending = domain.PendingNone })
			d.home(ctx, id)
			return
		}
		d.setPair(ctx, id, t, true)
		return
	}

	switch {
	case isStart, t == tx.Back:
		d.home(ctx, id)
	case t == tx.ScanNow:
		d.scan(ctx, id)
	case t == tx.ChangePair:
		s = d.sessions.Update(id, func(s *domain.Session) { s.Pending = domain.PendingPair })
		d.reply(ctx, s, tx.AskPair)
	case t == tx.Top:
		d.top(ctx, id)
	case t == tx.Language:
		d.sessions.Update(id, func(s *domain.Session) { s.Pending = domain.PendingLanguage })
		d.send(ctx, id, domain.Message{Text: tx.LangPick, Keyboard: LanguageKeyboard()})
	case t == tx.NewTokens:
		d.newTokens(ctx, id)
	case t == tx.AutoOn, t == tx.AutoOff:
		s = d.sessions.Update(id, func(s *domain.Session) { s.WatcherEnabled = !s.WatcherEnabled })
		state := "OFF"
		if s.WatcherEnabled {
			state = "ON"
		}
		d.reply(ctx, s, fmt.Sprintf(tx.AutoNowFmt, state))
	case u == "/THRESHOLD" || strings.HasPrefix(u, "/THRESHOLD "):
		d.threshold(ctx, id, strings.TrimSpace(t[len("/threshold"):]))
	case strings.HasPrefix(strings.ToLower(t), "info "):
		d.info(ctx, id, strings.TrimSpace(t[len("info "):]))
	default:
		d.setPair(ctx, id, t, false)
	}
}

func (d *Dispatcher) home(ctx context.Context, id domain.RecipientID) {
	s := d.sessions.Get(id)
	d.reply(ctx, s, fmt.Sprintf(Lookup(s.Locale).HomePairFmt, s.Pair))
}

func (d *Dispatcher) setLanguage(ctx context.Context, id domain.RecipientID, text string) {
	locale, ok := localeForButton(text)
	d.sessions.Update(id, func(s *domain.Session) {
		if ok {
			s.Locale = locale
		}
		s.Pending = domain.PendingNone
	})
	d.home(ctx, id)
}

// setPair applies typed text as the active pair. When the text was prompted
// for, a bad symbol gets a corrective reply; otherwise it gets the generic
// prompt. The prompt stays pending until a valid pair arrives.
func (d *Dispatcher) setPair(ctx context.Context, id domain.RecipientID, text string, prompted bool) {
	var pair domain.Pair
	err := domain.ErrInvalidPair
	if !IsUIWord(text) {
		pair, err = domain.ParsePair(text)
	}
	if err != nil {
		s := d.sessions.Get(id)
		tx := Lookup(s.Locale)
		if prompted {
			d.reply(ctx, s, tx.BadPair)
		} else {
			d.reply(ctx, s, tx.AskPair)
		}
		return
	}
	s := d.sessions.Update(id, func(s *domain.Session) {
		s.Pair = pair
		s.Pending = domain.PendingNone
	})
	d.reply(ctx, s, fmt.Sprintf(Lookup(s.Locale).PairSetFmt, pair))
}

func (d *Dispatcher) scan(ctx context.Context, id domain.RecipientID) {
	s := d.sessions.Get(id)
	if !d.allow(ctx, s) {
		return
	}
	qs := d.quotes.FetchAll(ctx, s.Pair)
	s = d.sessions.Get(id)
	d.reply(ctx, s, RenderScan(Lookup(s.Locale), qs))
}

func (d *Dispatcher) top(ctx context.Context, id domain.RecipientID) {
	s := d.sessions.Get(id)
	if !d.allow(ctx, s) {
		return
	}
	top := d.ranker.Top(ctx, d.cfg.Watchlist, d.cfg.TopK)
	s = d.sessions.Get(id)
	d.reply(ctx, s, RenderTop(Lookup(s.Locale), top))
}

func (d *Dispatcher) newTokens(ctx context.Context, id domain.RecipientID) {
	s := d.sessions.Get(id)
	if !d.allow(ctx, s) {
		return
	}
	var assets []domain.ListedAsset
	if d.catalog != nil {
		var err error
		assets, err = d.catalog.ListRecentlyAdded(ctx, d.cfg.NewTokensLimit)
		if err != nil {
			d.logger.WarnContext(ctx, "catalog list failed", slog.String("error", err.Error()))
			assets = nil
		}
	}
	s = d.sessions.Get(id)
	d.reply(ctx, s, RenderNewTokens(Lookup(s.Locale), assets))
}

func (d *Dispatcher) info(ctx context.Context, id domain.RecipientID, symbol string) {
	s := d.sessions.Get(id)
	if !d.allow(ctx, s) {
		return
	}
	text := Lookup(s.Locale).InfoNotFound
	if d.catalog != nil && symbol != "" {
		asset, err := d.catalog.LookupBySymbol(ctx, symbol)
		switch {
		case err == nil:
			s = d.sessions.Get(id)
			text = RenderInfo(Lookup(s.Locale), asset)
		case errors.Is(err, domain.ErrNotFound):
		default:
			d.logger.WarnContext(ctx, "catalog lookup failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}
	d.reply(ctx, s, text)
}

func (d *Dispatcher) threshold(ctx context.Context, id domain.RecipientID, arg string) {
	s := d.sessions.Get(id)
	tx := Lookup(s.Locale)
	if arg == "" {
		d.reply(ctx, s, fmt.Sprintf(tx.ThresholdNowFmt, s.NotifyThreshold))
		return
	}
	pct, err := strconv.ParseFloat(strings.TrimSuffix(strings.ReplaceAll(arg, ",", "."), "%"), 64)
	if err != nil || math.IsNaN(pct) || pct < 0 || pct > 1000 {
		d.reply(ctx, s, tx.ThresholdUsage)
		return
	}
	s = d.sessions.Update(id, func(s *domain.Session) { s.NotifyThreshold = pct })
	d.reply(ctx, s, fmt.Sprintf(tx.ThresholdSetFmt, pct))
}

// allow applies the per-subscriber command limit, replying when it is hit.
// Limiter errors let the command through.
func (d *Dispatcher) allow(ctx context.Context, s domain.Session) bool {
	if d.limiter == nil || d.cfg.CommandLimit <= 0 {
		return true
	}
	key := "cmd:" + strconv.FormatInt(int64(s.Recipient), 10)
	ok, err := d.limiter.Allow(ctx, key, d.cfg.CommandLimit, d.cfg.CommandWindow)
	if err != nil {
		d.logger.WarnContext(ctx, "rate limiter failed", slog.String("error", err.Error()))
		return true
	}
	if !ok {
		d.reply(ctx, s, Lookup(s.Locale).SlowDown)
	}
	return ok
}

// reply sends text with the session's main keyboard.
func (d *Dispatcher) reply(ctx context.Context, s domain.Session, text string) {
	d.send(ctx, s.Recipient, domain.Message{Text: text, Keyboard: MainKeyboard(Lookup(s.Locale), s.WatcherEnabled)})
}

func (d *Dispatcher) send(ctx context.Context, id domain.RecipientID, msg domain.Message) {
	// Delivery failures are logged by the notifier and never retried.
	_ = d.notifier.Send(ctx, id, msg)
}
