package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/spreadbot/internal/bot"
	"github.com/alanyoungcy/spreadbot/internal/domain"
	"github.com/alanyoungcy/spreadbot/internal/notify"
	"github.com/alanyoungcy/spreadbot/internal/platform/telegram"
	"github.com/alanyoungcy/spreadbot/internal/server"
	"github.com/alanyoungcy/spreadbot/internal/server/handler"
	"github.com/alanyoungcy/spreadbot/internal/server/ws"
	"github.com/alanyoungcy/spreadbot/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

// FullMode runs the chat dispatcher, the auto-watcher and, when enabled, the
// HTTP server.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")
	if deps.Telegram == nil {
		return fmt.Errorf("app: full mode: %w", domain.ErrMissingToken)
	}

	if a.cfg.Telegram.InstanceLock && deps.LockManager != nil {
		ttl := a.cfg.Redis.LockTTL.Duration
		lease, err := a.acquireLease(ctx, deps.LockManager, ttl)
		if err != nil {
			return err
		}
		defer lease.Release()
		// keepLease shares the group below so a lost lease stops polling.
		return a.runFull(ctx, deps, func(g *errgroup.Group, gctx context.Context) {
			g.Go(func() error { return a.keepLease(gctx, lease, ttl) })
		})
	}
	return a.runFull(ctx, deps, nil)
}

func (a *App) runFull(ctx context.Context, deps *Dependencies, extra func(*errgroup.Group, context.Context)) error {
	g, gctx := errgroup.WithContext(ctx)
	if extra != nil {
		extra(g, gctx)
	}

	if me, err := deps.Telegram.GetMe(gctx); err != nil {
		a.logger.WarnContext(gctx, "telegram getMe failed", slog.String("error", err.Error()))
	} else {
		a.logger.InfoContext(gctx, "telegram bot ready",
			slog.String("username", me.Username),
			slog.Int64("id", me.ID),
		)
	}

	delivery := notify.NewDelivery(deps.Telegram, a.logger)
	scanner := a.cfg.Scanner

	dispatcher := bot.NewDispatcher(bot.Config{
		Watchlist:      scanner.Watchlist,
		TopK:           scanner.TopK,
		NewTokensLimit: scanner.NewTokensLimit,
		CommandLimit:   scanner.CommandLimit,
		CommandWindow:  scanner.CommandWindow.Duration,
	}, bot.Deps{
		Sessions: deps.Sessions,
		Quotes:   deps.Quotes,
		Ranker:   deps.Ranker,
		Catalog:  deps.Catalog,
		Notifier: delivery,
		Limiter:  deps.RateLimiter,
		Logger:   a.logger,
	})
	poller := telegram.NewPoller(deps.Telegram, telegram.PollerConfig{
		LongPollTimeout: a.cfg.Telegram.PollTimeout,
		RetryDelay:      a.cfg.Telegram.RetryDelay.Duration,
	}, a.logger)
	g.Go(func() error {
		return dispatcher.Run(gctx, poller.Events(gctx))
	})

	w := a.newWatcher(deps, delivery)
	g.Go(func() error {
		return w.Run(gctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(gctx, g, deps)
	}

	a.notifyOps(gctx, deps, notify.EventStartup, "spreadbot started",
		fmt.Sprintf("watching %d pairs on %d exchanges", len(scanner.Watchlist), len(deps.Quotes.Exchanges())))
	err := g.Wait()
	a.notifyOps(context.WithoutCancel(ctx), deps, notify.EventShutdown, "spreadbot stopped", shutdownReason(err))
	return err
}

// ServerMode runs the HTTP API and the opportunity stream without a chat
// transport. The watcher broadcasts the best opportunity every scan period.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")
	g, gctx := errgroup.WithContext(ctx)

	w := a.newWatcher(deps, nil)
	g.Go(func() error {
		return w.RunBroadcast(gctx)
	})
	a.startHTTPServer(gctx, g, deps)
	return g.Wait()
}

// ScanMode ranks the watchlist once, logs the result, and returns.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	scanner := a.cfg.Scanner
	a.logger.InfoContext(ctx, "starting scan mode",
		slog.Int("pairs", len(scanner.Watchlist)),
		slog.Any("exchanges", deps.Quotes.Exchanges()),
	)

	top := deps.Ranker.Top(ctx, scanner.Watchlist, scanner.TopK)
	if len(top) == 0 {
		a.logger.InfoContext(ctx, "no profitable opportunity found")
		return nil
	}
	for i, opp := range top {
		a.logger.InfoContext(ctx, "opportunity",
			slog.Int("rank", i+1),
			slog.String("pair", opp.Pair.String()),
			slog.Float64("pct", opp.Pct),
			slog.String("buy_exchange", opp.BuyExchange),
			slog.Float64("buy_price", opp.BuyPrice),
			slog.String("sell_exchange", opp.SellExchange),
			slog.Float64("sell_price", opp.SellPrice),
			slog.Int("quotes", len(opp.Quotes.Quotes)),
		)
	}
	return nil
}

func (a *App) newWatcher(deps *Dependencies, notifier domain.Notifier) *watcher.Watcher {
	return watcher.New(watcher.Config{
		TickPeriod: a.cfg.Scanner.TickPeriod.Duration,
		ScanPeriod: a.cfg.Scanner.ScanPeriod.Duration,
		Watchlist:  a.cfg.Scanner.Watchlist,
	}, watcher.Deps{
		Sessions: deps.Sessions,
		Ranker:   deps.Ranker,
		Notifier: notifier,
		Renderer: bot.Renderer{},
		Alerts:   deps.AlertStore,
		Bus:      deps.SignalBus,
		Ops:      deps.Ops,
		Logger:   a.logger,
	})
}

// startHTTPServer registers the hub, the server and its graceful shutdown on g.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Status: handler.NewStatusHandler(a.cfg.Mode, deps.Quotes.Exchanges(), deps.Sessions),
		Arb: handler.NewArbHandler(handler.ArbConfig{
			DefaultPair: a.cfg.Scanner.DefaultPair,
			Watchlist:   a.cfg.Scanner.Watchlist,
			TopK:        a.cfg.Scanner.TopK,
		}, deps.Quotes, deps.Ranker, a.logger),
	}
	if deps.AlertStore != nil {
		handlers.Alerts = handler.NewAlertHandler(deps.AlertStore, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return hub.Run(ctx)
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

func (a *App) notifyOps(ctx context.Context, deps *Dependencies, event, title, message string) {
	if !deps.Ops.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := deps.Ops.Notify(ctx, event, title, message); err != nil {
		a.logger.WarnContext(ctx, "ops notification failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func shutdownReason(err error) string {
	if err == nil || errors.Is(err, context.Canceled) {
		return "clean shutdown"
	}
	return err.Error()
}
