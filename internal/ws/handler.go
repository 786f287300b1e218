package ws

import (
	"log"
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// TokenParser resolves a session token to the user it was issued for.
type TokenParser interface {
	Parse(token string) (*models.User, error)
}

// Handler upgrades HTTP requests to hub connections.
type Handler struct {
	Hub      *Hub
	Settings Settings
	// Tokens is optional. When set, a ?token= query parameter binds the
	// connection to that user.
	Tokens TokenParser
	// AllowedOrigin is matched against the Origin header; "*" or empty
	// accepts any origin.
	AllowedOrigin string
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return h.AllowedOrigin == "" || h.AllowedOrigin == "*" || origin == "" || origin == h.AllowedOrigin
		},
	}
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var user *models.User
	if token := r.URL.Query().Get("token"); token != "" {
		if h.Tokens == nil {
			http.Error(w, "Tokens are not enabled", http.StatusBadRequest)
			return
		}
		u, err := h.Tokens.Parse(token)
		if err != nil {
			log.Printf("[WS] Rejected token: %v", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		user = u
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	client := NewClient(uuid.NewString(), conn, h.Settings)
	client.User = user
	h.Hub.Connect(client)

	go client.WritePump()
	go client.ReadPump(h.Hub)
}
