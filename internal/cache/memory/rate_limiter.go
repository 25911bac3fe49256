package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// RateLimiter keeps one token bucket per key, refilled at limit per window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	now     func() time.Time
}

// NewRateLimiter creates an empty RateLimiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*rate.Limiter), now: time.Now}
}

// Allow reports whether one more event for key is permitted.
func (rl *RateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	lim, ok := rl.buckets[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
		rl.buckets[key] = lim
	}
	return lim.AllowN(rl.now(), 1), nil
}

var _ domain.RateLimiter = (*RateLimiter)(nil)
