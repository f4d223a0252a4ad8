package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/olahol/melody"

	"cashflow/internal/log"
	"cashflow/internal/viewsync"
)

// Events pushed to browsers over the websocket.
const (
	EventLedgerRefreshed = "ledger:refreshed"
	EventNotification    = "show-notification"
)

// liveEvent is the websocket frame. Browsers re-fetch the ledger partial on
// ledger:refreshed and show Notification otherwise.
type liveEvent struct {
	Type         string        `json:"type"`
	Phase        string        `json:"phase,omitempty"`
	Count        int           `json:"count,omitempty"`
	Notification *notification `json:"notification,omitempty"`
}

// Hub fans view changes out to every open browser.
type Hub struct {
	m      *melody.Melody
	logger *log.Logger
}

// NewHub builds a hub with keep-alive settings suited to proxied hosting.
func NewHub(logger *log.Logger) *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	logger = logger.WithComponent(log.ComponentLive)
	h := &Hub{m: m, logger: logger}

	m.HandleConnect(func(s *melody.Session) {
		logger.Debug("Client connected", log.FieldClientIP, s.Request.RemoteAddr)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		logger.Debug("Client disconnected", log.FieldClientIP, s.Request.RemoteAddr)
	})
	m.HandleError(func(s *melody.Session, err error) {
		logger.Warn("WebSocket error", log.FieldError, err)
	})
	return h
}

// ServeHTTP upgrades the request.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.m.HandleRequest(w, r); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to upgrade websocket", log.FieldError, err)
	}
}

// StateChanged is a viewsync state listener.
func (h *Hub) StateChanged(st viewsync.State) {
	h.send(liveEvent{Type: EventLedgerRefreshed, Phase: st.Phase.String(), Count: len(st.All)})
}

// Notify shows b in every open browser.
func (h *Hub) Notify(b viewsync.Banner) {
	n := toNotification(b)
	h.send(liveEvent{Type: EventNotification, Notification: &n})
}

// Clients is the number of connected sessions.
func (h *Hub) Clients() int {
	return h.m.Len()
}

// Close disconnects every session.
func (h *Hub) Close() error {
	return h.m.Close()
}

func (h *Hub) send(ev liveEvent) {
	if h.m.IsClosed() {
		return
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := h.m.Broadcast(msg); err != nil {
		h.logger.Warn("Broadcast failed", log.FieldError, err, log.FieldType, ev.Type)
	}
}
