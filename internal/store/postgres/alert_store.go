package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// AlertStore implements domain.AlertStore using PostgreSQL.
type AlertStore struct {
	pool *pgxpool.Pool
}

// NewAlertStore creates a new AlertStore backed by the given connection pool.
func NewAlertStore(pool *pgxpool.Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

const alertSelectCols = `id, recipient_id, fingerprint, pair, pct,
	buy_exchange, sell_exchange, buy_price, sell_price, sent_at`

// Insert stores a delivered alert. Re-inserting the same ID is a no-op.
func (s *AlertStore) Insert(ctx context.Context, a domain.Alert) error {
	const query = `
		INSERT INTO alerts (
			id, recipient_id, fingerprint, pair, pct,
			buy_exchange, sell_exchange, buy_price, sell_price, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		a.ID, int64(a.Recipient), a.Fingerprint, a.Pair.String(), a.Pct,
		a.BuyExchange, a.SellExchange, a.BuyPrice, a.SellPrice, a.SentAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert alert %s: %w", a.ID, err)
	}
	return nil
}

// ListRecent returns up to limit alerts, newest first.
func (s *AlertStore) ListRecent(ctx context.Context, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + alertSelectCols + ` FROM alerts ORDER BY sent_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list alerts: %w", err)
	}
	alerts, err := pgx.CollectRows(rows, scanAlert)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan alerts: %w", err)
	}
	return alerts, nil
}

func scanAlert(row pgx.CollectableRow) (domain.Alert, error) {
	var (
		a         domain.Alert
		recipient int64
		pair      string
	)
	if err := row.Scan(
		&a.ID, &recipient, &a.Fingerprint, &pair, &a.Pct,
		&a.BuyExchange, &a.SellExchange, &a.BuyPrice, &a.SellPrice, &a.SentAt,
	); err != nil {
		return domain.Alert{}, err
	}
	a.Recipient = domain.RecipientID(recipient)
	p, err := domain.ParsePair(pair)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("alert %s: %w", a.ID, err)
	}
	a.Pair = p
	return a, nil
}

// Compile-time interface check.
var _ domain.AlertStore = (*AlertStore)(nil)
