package updates

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Handler serves the per-user push channel.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket handler over hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the push endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{userID}", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "user id is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user=%s: %v", userID, err)
		return
	}
	defer conn.Close()

	ch, cancel := h.hub.Subscribe(userID)
	defer cancel()

	log.Printf("[ws] update stream opened, user=%s", userID)

	// The read pump exists only to notice the peer hanging up.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			log.Printf("[ws] update stream closed, user=%s", userID)
			return
		case <-r.Context().Done():
			return
		case update := <-ch:
			if err := conn.WriteJSON(map[string]string{"update": update}); err != nil {
				log.Printf("[ws] write failed, user=%s: %v", userID, err)
				return
			}
		}
	}
}
