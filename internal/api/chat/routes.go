package chat

import (
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/api/respond"
	"github.com/gorilla/mux"
)

func RegisterChatRoutes(r *mux.Router, h *ChatHandler) {
	r.HandleFunc("/api/v1/chat", respond.Logged(tag, h.GetMessages)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/chat", respond.Logged(tag, h.SendMessage)).Methods(http.MethodPost)
}
