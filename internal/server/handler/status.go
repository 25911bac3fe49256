package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/session"
)

// SessionStats reports subscriber counters.
type SessionStats interface {
	Stats() session.Stats
}

// StatusHandler serves the runtime status for dashboards.
type StatusHandler struct {
	mode      string
	exchanges []string
	sessions  SessionStats // nil in server mode
	startedAt time.Time
	now       func() time.Time
}

// NewStatusHandler creates a StatusHandler. sessions may be nil when no chat
// transport is running.
func NewStatusHandler(mode string, exchanges []string, sessions SessionStats) *StatusHandler {
	return &StatusHandler{
		mode:      mode,
		exchanges: exchanges,
		sessions:  sessions,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

type statusResponse struct {
	Mode          string        `json:"mode"`
	Exchanges     []string      `json:"exchanges"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Sessions      session.Stats `json:"sessions"`
}

// GetStatus responds with the mode, enabled exchanges and subscriber counts.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Mode:          h.mode,
		Exchanges:     h.exchanges,
		UptimeSeconds: int64(h.now().Sub(h.startedAt).Seconds()),
	}
	if resp.Exchanges == nil {
		resp.Exchanges = []string{}
	}
	if h.sessions != nil {
		resp.Sessions = h.sessions.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}
