package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// pollerLockKey guards the Telegram long poll: the Bot API rejects concurrent
// getUpdates callers for one token.
const pollerLockKey = "telegram-poller"

// acquireLease blocks until the poller lock is obtained or ctx ends. A held
// lock means another instance is polling; this one waits as a standby.
func (a *App) acquireLease(ctx context.Context, locks domain.LockManager, ttl time.Duration) (domain.Lease, error) {
	retry := max(ttl/3, 100*time.Millisecond)
	for {
		lease, err := locks.Acquire(ctx, pollerLockKey, ttl)
		switch {
		case err == nil:
			a.logger.InfoContext(ctx, "instance lease acquired", slog.Duration("ttl", ttl))
			return lease, nil
		case errors.Is(err, domain.ErrLockHeld):
			a.logger.InfoContext(ctx, "another instance holds the poller lease, waiting")
		default:
			a.logger.WarnContext(ctx, "acquire instance lease failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retry):
		}
	}
}

// keepLease refreshes lease every ttl/3 until ctx ends. Losing the lease is
// fatal so that a standby instance can take over polling.
func (a *App) keepLease(ctx context.Context, lease domain.Lease, ttl time.Duration) error {
	ticker := time.NewTicker(max(ttl/3, 100*time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := lease.Refresh(ctx, ttl); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("app: instance lease lost: %w", err)
			}
		}
	}
}
