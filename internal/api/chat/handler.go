package chat

import (
	"log"
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/api/respond"
	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/ratelimit"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
)

const tag = "Chat"

// ChatHandler serves a song's chat transcript. Limiter may be nil, in which
// case posting is unlimited.
type ChatHandler struct {
	Store   storage.Store
	Limiter *ratelimit.Limiter
}

// GetMessages expects ?songId= and returns the transcript oldest first.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	songID := r.URL.Query().Get("songId")
	if songID == "" {
		respond.Error(w, r, tag, &models.ValidationError{Field: "songId", Reason: "is required"})
		return
	}
	msgs, err := h.Store.ListChatMessages(r.Context(), songID)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusOK, msgs)
}

// SendMessage stores a chat line. Relaying it to the room is the sender's
// job once this returns.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SongID  string `json:"songId"`
		UserID  string `json:"userId"`
		Message string `json:"message"`
	}
	if !respond.Decode(w, r, tag, &req) {
		return
	}
	if req.SongID == "" || req.UserID == "" || req.Message == "" {
		respond.Error(w, r, tag, &models.ValidationError{Field: "request", Reason: "songId, userId, and message are required"})
		return
	}

	if err := h.Limiter.AllowChat(r.Context(), req.SongID, req.UserID); err != nil {
		respond.Error(w, r, tag, err)
		return
	}

	msg, err := h.Store.CreateChatMessage(r.Context(), req.SongID, req.UserID, req.Message)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusCreated, msg)
	log.Printf("[Chat] Message %s from %s in song %s", msg.ID, msg.UserID, msg.SongID)
}
