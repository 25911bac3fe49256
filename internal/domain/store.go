package domain

import "context"

// AlertStore persists the log of watcher alerts.
type AlertStore interface {
	Insert(ctx context.Context, alert Alert) error
	ListRecent(ctx context.Context, limit int) ([]Alert, error)
}
