package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const livePushInterval = 2 * time.Second

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type liveMessage struct {
	Type      string    `json:"type"`
	MeetingID string    `json:"meeting_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Live streams a fresh participation snapshot over a websocket every few
// seconds. Each push recomputes from the current log, so concurrent clients
// are independent and a slightly stale frame is always a valid one.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	botID := chi.URLParam(r, "bot_id")
	if botID == "" {
		http.Error(w, "bot_id is required", http.StatusBadRequest)
		return
	}

	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("failed to upgrade to WebSocket", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	h.log.Info("live snapshot stream opened",
		slog.String("bot_id", botID),
		slog.String("remote_addr", r.RemoteAddr))

	// Drain client frames so pings and close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Debug("live stream context done", slog.String("bot_id", botID))
			return
		case <-ticker.C:
			snapshot, err := h.monitor.Snapshot(r.Context(), botID)
			if err != nil {
				h.log.Warn("live stream session gone, closing",
					slog.String("error", err.Error()),
					slog.String("bot_id", botID))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}

			msg := liveMessage{
				Type:      "participation_update",
				MeetingID: botID,
				Timestamp: time.Now(),
				Data:      snapshot,
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("live stream client disconnected",
					slog.String("error", err.Error()),
					slog.String("bot_id", botID))
				return
			}
		}
	}
}
