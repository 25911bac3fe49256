package notify

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// Delivery wraps the chat transport as the subscriber-facing domain.Notifier.
// Failures are logged here and returned for callers that count them; they are
// never retried.
type Delivery struct {
	transport domain.Notifier
	logger    *slog.Logger
}

// NewDelivery creates a Delivery over transport.
func NewDelivery(transport domain.Notifier, logger *slog.Logger) *Delivery {
	return &Delivery{
		transport: transport,
		logger:    logger.With(slog.String("component", "delivery")),
	}
}

// Send delivers msg to a subscriber.
func (d *Delivery) Send(ctx context.Context, to domain.RecipientID, msg domain.Message) error {
	if err := d.transport.Send(ctx, to, msg); err != nil {
		d.logger.ErrorContext(ctx, "delivery failed",
			slog.Int64("recipient", int64(to)),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

var _ domain.Notifier = (*Delivery)(nil)
