// Package watcher runs the periodic auto-scan that alerts subscribers about
// new best opportunities across the watchlist.
package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// opsEventOpportunity is the operator event type for sent alerts.
const opsEventOpportunity = "opportunity"

// SessionStore is the subscriber state the watcher reads and claims.
type SessionStore interface {
	List() []domain.Session
	Update(id domain.RecipientID, fn func(s *domain.Session)) domain.Session
}

// Ranker returns the top profitable crossings across pairs.
type Ranker interface {
	Top(ctx context.Context, pairs []domain.Pair, k int) []domain.RankedOpportunity
}

// Renderer builds the messages for one alert in the subscriber's locale.
type Renderer interface {
	WatcherAlert(s domain.Session, opp domain.RankedOpportunity) []domain.Message
}

// OpsNotifier mirrors events to operator channels.
type OpsNotifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config tunes the scheduler.
type Config struct {
	// TickPeriod is how often eligibility is checked.
	TickPeriod time.Duration
	// ScanPeriod is the minimum time between scans for one subscriber.
	ScanPeriod time.Duration
	Watchlist  []domain.Pair
}

// Deps are the scheduler's collaborators. Alerts, Bus and Ops are optional.
type Deps struct {
	Sessions SessionStore
	Ranker   Ranker
	Notifier domain.Notifier
	Renderer Renderer
	Alerts   domain.AlertStore
	Bus      domain.SignalBus
	Ops      OpsNotifier
	Logger   *slog.Logger
}

// Watcher is the auto-scan scheduler.
//
// Per subscriber: eligible when the watcher is on and ScanPeriod has elapsed
// since the last scan; LastScanAt is claimed before ranking; an alert goes out
// only when the best crossing meets the subscriber's threshold and its
// fingerprint differs from the last one they were alerted about.
type Watcher struct {
	cfg  Config
	deps Deps
	now  func() time.Time
	log  *slog.Logger
}

// New creates a Watcher.
func New(cfg Config, deps Deps) *Watcher {
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = 5 * time.Second
	}
	if cfg.ScanPeriod <= 0 {
		cfg.ScanPeriod = 30 * time.Second
	}
	return &Watcher{
		cfg:  cfg,
		deps: deps,
		now:  time.Now,
		log:  deps.Logger.With(slog.String("component", "watcher")),
	}
}

// Run ticks until ctx is cancelled. A failing tick is logged and the loop
// continues on the next one.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("watcher started",
		slog.Duration("tick", w.cfg.TickPeriod),
		slog.Duration("scan_period", w.cfg.ScanPeriod),
		slog.Int("watchlist", len(w.cfg.Watchlist)),
	)
	defer w.log.Info("watcher stopped")

	ticker := time.NewTicker(w.cfg.TickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.safeTick(ctx); err != nil {
				w.log.ErrorContext(ctx, "watcher tick failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Watcher) safeTick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("watcher: tick panic: %v", r)
		}
	}()
	w.Tick(ctx)
	return nil
}

// Tick runs one scheduling pass and returns the number of subscribers that
// received at least one alert message.
func (w *Watcher) Tick(ctx context.Context) int {
	now := w.now()
	due := w.claimDue(now)
	if len(due) == 0 {
		return 0
	}

	// One ranking serves every subscriber that came due on this tick.
	top := w.deps.Ranker.Top(ctx, w.cfg.Watchlist, 1)
	if len(top) == 0 {
		w.log.DebugContext(ctx, "no profitable opportunity", slog.Int("due", len(due)))
		return 0
	}
	best := top[0]
	w.publish(ctx, best, now)

	sent := 0
	for _, id := range due {
		s, ok := w.markNotified(id, best)
		if !ok {
			continue
		}
		delivered := 0
		for _, msg := range w.deps.Renderer.WatcherAlert(s, best) {
			if err := w.deps.Notifier.Send(ctx, id, msg); err == nil {
				delivered++
			}
		}
		// LastNotified stays set even when nothing was delivered.
		if delivered == 0 {
			continue
		}
		w.record(ctx, id, best, now)
		sent++
	}

	if sent > 0 {
		w.log.InfoContext(ctx, "opportunity alerted",
			slog.String("fingerprint", best.Fingerprint()),
			slog.Float64("pct", best.Pct),
			slog.Int("recipients", sent),
		)
		if w.deps.Ops != nil {
			title := fmt.Sprintf("Opportunity %s %.2f%%", best.Pair, best.Pct)
			msg := fmt.Sprintf("buy %s @ %g, sell %s @ %g, sent to %d subscriber(s)",
				best.BuyExchange, best.BuyPrice, best.SellExchange, best.SellPrice, sent)
			_ = w.deps.Ops.Notify(ctx, opsEventOpportunity, title, msg)
		}
	}
	return sent
}

// RunBroadcast publishes the best watchlist opportunity every ScanPeriod
// until ctx is cancelled. It serves stream consumers when no chat transport
// drives Tick.
func (w *Watcher) RunBroadcast(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.ScanPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Broadcast(ctx)
		}
	}
}

// Broadcast ranks the watchlist once and publishes the best profitable
// opportunity. It reports whether anything was published.
func (w *Watcher) Broadcast(ctx context.Context) bool {
	if w.deps.Bus == nil {
		return false
	}
	top := w.deps.Ranker.Top(ctx, w.cfg.Watchlist, 1)
	if len(top) == 0 {
		return false
	}
	w.publish(ctx, top[0], w.now())
	return true
}

// claimDue stamps LastScanAt on every eligible session and returns their ids.
func (w *Watcher) claimDue(now time.Time) []domain.RecipientID {
	var due []domain.RecipientID
	for _, s := range w.deps.Sessions.List() {
		if !s.WatcherEnabled {
			continue
		}
		claimed := false
		w.deps.Sessions.Update(s.Recipient, func(s *domain.Session) {
			if !s.WatcherEnabled || now.Sub(s.LastScanAt) < w.cfg.ScanPeriod {
				return
			}
			s.LastScanAt = now
			claimed = true
		})
		if claimed {
			due = append(due, s.Recipient)
		}
	}
	return due
}

// markNotified applies the threshold and dedup filters for one subscriber and
// records the fingerprint when an alert is due.
func (w *Watcher) markNotified(id domain.RecipientID, best domain.RankedOpportunity) (domain.Session, bool) {
	fp := best.Fingerprint()
	notify := false
	s := w.deps.Sessions.Update(id, func(s *domain.Session) {
		if !s.WatcherEnabled || best.Pct < s.NotifyThreshold || s.LastNotified == fp {
			return
		}
		s.LastNotified = fp
		notify = true
	})
	return s, notify
}

func (w *Watcher) publish(ctx context.Context, best domain.RankedOpportunity, now time.Time) {
	if w.deps.Bus == nil {
		return
	}
	payload, err := json.Marshal(domain.NewOpportunityEvent(best, now))
	if err != nil {
		w.log.WarnContext(ctx, "encode opportunity failed", slog.String("error", err.Error()))
		return
	}
	if err := w.deps.Bus.Publish(ctx, domain.ChannelOpportunities, payload); err != nil {
		w.log.WarnContext(ctx, "publish opportunity failed", slog.String("error", err.Error()))
	}
}

func (w *Watcher) record(ctx context.Context, id domain.RecipientID, best domain.RankedOpportunity, now time.Time) {
	if w.deps.Alerts == nil {
		return
	}
	alert := domain.Alert{
		ID:           uuid.NewString(),
		Recipient:    id,
		Fingerprint:  best.Fingerprint(),
		Pair:         best.Pair,
		Pct:          best.Pct,
		BuyExchange:  best.BuyExchange,
		SellExchange: best.SellExchange,
		BuyPrice:     best.BuyPrice,
		SellPrice:    best.SellPrice,
		SentAt:       now,
	}
	if err := w.deps.Alerts.Insert(ctx, alert); err != nil {
		w.log.WarnContext(ctx, "record alert failed",
			slog.Int64("recipient", int64(id)),
			slog.String("error", err.Error()),
		)
	}
}
