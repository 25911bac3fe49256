package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// PollerConfig tunes the long-poll loop.
type PollerConfig struct {
	// LongPollTimeout is the server-side getUpdates wait in seconds.
	LongPollTimeout int
	// RetryDelay is the pause after a failed poll.
	RetryDelay time.Duration
	// Buffer is the capacity of the events channel.
	Buffer int
}

// updatesGetter is the part of Client the poller needs.
type updatesGetter interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
}

// Poller turns getUpdates long polling into a domain.EventSource. Only
// non-empty text messages become events.
type Poller struct {
	client updatesGetter
	cfg    PollerConfig
	logger *slog.Logger
}

// NewPoller creates a Poller over client.
func NewPoller(client updatesGetter, cfg PollerConfig, logger *slog.Logger) *Poller {
	if cfg.LongPollTimeout <= 0 {
		cfg.LongPollTimeout = 25
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	return &Poller{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "telegram_poller")),
	}
}

// Events starts polling and returns the event stream. The channel is closed
// once ctx is cancelled.
func (p *Poller) Events(ctx context.Context) <-chan domain.InboundEvent {
	out := make(chan domain.InboundEvent, p.cfg.Buffer)
	go p.run(ctx, out)
	return out
}

func (p *Poller) run(ctx context.Context, out chan<- domain.InboundEvent) {
	defer close(out)
	p.logger.Info("polling started")
	defer p.logger.Info("polling stopped")

	var offset int64
	for ctx.Err() == nil {
		next, err := p.poll(ctx, offset, out)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.WarnContext(ctx, "poll failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.RetryDelay):
			}
			continue
		}
		offset = next
	}
}

// poll runs one getUpdates round and returns the next offset.
func (p *Poller) poll(ctx context.Context, offset int64, out chan<- domain.InboundEvent) (next int64, err error) {
	next = offset
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("telegram: poll panic: %v", r)
		}
	}()

	updates, err := p.client.GetUpdates(ctx, offset, p.cfg.LongPollTimeout)
	if err != nil {
		return offset, err
	}
	for _, u := range updates {
		next = max(next, u.UpdateID+1)
		m := u.Message
		if m == nil || m.Chat.ID == 0 || m.Text == "" {
			continue
		}
		select {
		case out <- domain.InboundEvent{Recipient: domain.RecipientID(m.Chat.ID), Text: m.Text}:
		case <-ctx.Done():
			return next, nil
		}
	}
	return next, nil
}

var _ domain.EventSource = (*Poller)(nil)
