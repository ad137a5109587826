package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nstogner/filechat/pkg/domain"
	"github.com/nstogner/filechat/pkg/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleChatWebSocket is the streaming variant of POST /query: each received
// {"question": ...} frame is answered with one JSON frame per event followed
// by a "done" frame. Exchanges are persisted through the same path as the
// REST endpoint.
func (s *Server) handleChatWebSocket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Missing session ID", http.StatusBadRequest)
		return
	}

	// Verify the session exists before upgrading.
	if _, err := s.sessions.ListFiles(r.Context(), s.user, id); errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}
	defer ws.Close()

	for {
		var msg struct {
			Question string `json:"question"`
		}
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			slog.Error("WebSocket read error", "session", id, "error", err)
			return
		}
		if msg.Question == "" {
			continue
		}

		answer, err := s.query.Answer(r.Context(), s.user, id, msg.Question)
		if err != nil {
			slog.Error("Failed to answer question", "session", id, "error", err)
			if wErr := ws.WriteJSON(map[string]string{"type": "error", "content": err.Error()}); wErr != nil {
				return
			}
			continue
		}

		for _, ev := range answer.Events {
			if err := ws.WriteJSON(ev); err != nil {
				slog.Error("WebSocket write error", "session", id, "error", err)
				return
			}
		}
		if err := ws.WriteJSON(domain.Event{Type: "done"}); err != nil {
			return
		}
	}
}
