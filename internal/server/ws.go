package server

import (
	"log/slog"
	"net/http"

	"github.com/jensholdgaard/live-auction/internal/broadcast"
	"github.com/jensholdgaard/live-auction/internal/event"
)

// handleLive upgrades the connection and streams auction events. A new
// observer first receives the current snapshot (or idle status); after
// that it only sees live events. There is no historical replay.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}

	sub := s.hub.Subscribe()
	defer func() {
		s.hub.Unsubscribe(sub.ID)
		conn.Close()
	}()

	var initial statusResponse
	if snap, ok := s.engine.Status(); ok {
		initial = statusResponse{Status: "open", Snapshot: &snap}
	} else {
		initial = statusResponse{Status: "idle"}
	}
	if err := conn.WriteJSON(broadcast.Message{Type: event.AuctionSnapshot, Data: initial}); err != nil {
		return
	}

	// Drain client frames so we notice a disconnect; inbound data is
	// otherwise ignored (bids go over the HTTP API).
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
