package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// displayMessage is what clients send when their viewport changes size.
type displayMessage struct {
	DisplayWidth  int `json:"displayWidth"`
	DisplayHeight int `json:"displayHeight"`
}

// OverlayHandler feeds (state, placement) updates to the presentation layer
// over WebSocket and accepts display-size reports back. It is the session's
// listener: every state change and every tick reaches every client.
type OverlayHandler struct {
	session *session.Session
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewOverlayHandler creates an OverlayHandler and registers it as the
// session's update listener.
func NewOverlayHandler(s *session.Session) *OverlayHandler {
	h := &OverlayHandler{
		session: s,
		clients: make(map[*websocket.Conn]bool),
	}
	s.SetListener(h.Publish)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *OverlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// New clients start from the current snapshot rather than waiting for
	// the next tick.
	state, reason := h.session.State()
	snapshot := session.Update{State: state, Reason: reason, Placement: h.session.Placement()}
	if data, err := json.Marshal(snapshot); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Read loop: display-size reports keep the mapper's scale factors in
	// step with the rendered size.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg displayMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.DisplayWidth > 0 && msg.DisplayHeight > 0 {
			h.session.SetDisplaySize(msg.DisplayWidth, msg.DisplayHeight)
		}
	}
}

// Publish fans a session update out to all connected clients. It is called
// from the session goroutine on every state change and every tick.
func (h *OverlayHandler) Publish(update session.Update) {
	data, err := json.Marshal(update)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// ClientCount returns the number of connected presentation clients.
func (h *OverlayHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
