package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// AlertLister reads the watcher alert log.
type AlertLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Alert, error)
}

// AlertHandler serves the alert log endpoint.
type AlertHandler struct {
	store  AlertLister
	logger *slog.Logger
}

// NewAlertHandler creates an AlertHandler backed by store.
func NewAlertHandler(store AlertLister, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{store: store, logger: logHandler(logger, "alerts")}
}

type alertJSON struct {
	ID           string    `json:"id"`
	Recipient    int64     `json:"recipient"`
	Pair         string    `json:"pair"`
	Pct          float64   `json:"pct"`
	BuyExchange  string    `json:"buy_exchange"`
	SellExchange string    `json:"sell_exchange"`
	BuyPrice     float64   `json:"buy_price"`
	SellPrice    float64   `json:"sell_price"`
	SentAt       time.Time `json:"sent_at"`
}

type listAlertsResponse struct {
	Alerts []alertJSON `json:"alerts"`
}

// ListRecent returns the most recent alerts delivered by the watcher.
// GET /api/alerts/recent?limit=20
func (h *AlertHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, 200)

	alerts, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list alerts failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	resp := listAlertsResponse{Alerts: make([]alertJSON, 0, len(alerts))}
	for _, a := range alerts {
		resp.Alerts = append(resp.Alerts, alertJSON{
			ID:           a.ID,
			Recipient:    int64(a.Recipient),
			Pair:         a.Pair.String(),
			Pct:          a.Pct,
			BuyExchange:  a.BuyExchange,
			SellExchange: a.SellExchange,
			BuyPrice:     a.BuyPrice,
			SellPrice:    a.SellPrice,
			SentAt:       a.SentAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
