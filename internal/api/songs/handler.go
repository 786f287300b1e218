package songs

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/api/respond"
	"github.com/Vasu1712/scenyx-studio/internal/midi"
	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/gorilla/mux"
)

const tag = "Song"

// PresenceSource reports who is currently viewing a song. The hub answers
// for its own process; the Valkey mirror answers across processes.
type PresenceSource interface {
	Presence(ctx context.Context, songID string) ([]models.User, error)
}

// SongHandler serves song metadata, contributors, presence and export.
type SongHandler struct {
	Store    storage.Store
	Presence PresenceSource
}

func (h *SongHandler) ListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := h.Store.ListSongs(r.Context())
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusOK, songs)
	log.Printf("[Song] Listed %d songs", len(songs))
}

// CreateSong expects {name, tempo?, timeSignature?, bars?}.
func (h *SongHandler) CreateSong(w http.ResponseWriter, r *http.Request) {
	var in models.SongInput
	if !respond.Decode(w, r, tag, &in) {
		return
	}
	song, err := h.Store.CreateSong(r.Context(), in)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusCreated, song)
	log.Printf("[Song] Created song: ID=%s, Name=%s", song.ID, song.Name)
}

// GetSong returns the full graph: tracks with notes, chat and contributors.
func (h *SongHandler) GetSong(w http.ResponseWriter, r *http.Request) {
	song, err := h.Store.GetSong(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusOK, song)
}

func (h *SongHandler) UpdateSong(w http.ResponseWriter, r *http.Request) {
	var patch models.SongPatch
	if !respond.Decode(w, r, tag, &patch) {
		return
	}
	song, err := h.Store.UpdateSong(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusOK, song)
}

func (h *SongHandler) DeleteSong(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Store.DeleteSong(r.Context(), id); err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Deleted)
	log.Printf("[Song] Deleted song %s", id)
}

// AddContributor expects {userId}. Adding an existing contributor is not
// an error; the existing record comes back.
func (h *SongHandler) AddContributor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if !respond.Decode(w, r, tag, &req) {
		return
	}
	if req.UserID == "" {
		respond.Error(w, r, tag, &models.ValidationError{Field: "userId", Reason: "is required"})
		return
	}
	c, err := h.Store.AddContributor(r.Context(), mux.Vars(r)["id"], req.UserID)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}

// GetPresence lists the users with the song open right now.
func (h *SongHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	users, err := h.Presence.Presence(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respond.JSON(w, http.StatusOK, users)
}

// ExportMIDI renders the song as a Standard MIDI File.
func (h *SongHandler) ExportMIDI(w http.ResponseWriter, r *http.Request) {
	song, err := h.Store.GetSong(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	var buf bytes.Buffer
	if err := midi.Export(&buf, song); err != nil {
		respond.Error(w, r, tag, fmt.Errorf("failed to export song %s: %w", song.ID, err))
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", song.ID+".mid"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
	log.Printf("[Song] Exported song %s (%d bytes)", song.ID, buf.Len())
}
